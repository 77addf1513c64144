package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is the canonical catalog row. Rows are created and updated by
// the catalog synchronizer; they are deactivated, never deleted.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU            string          `gorm:"column:sku;not null;uniqueIndex:ux_products_sku"`
	SourceID       *int64          `gorm:"column:source_id"`
	Name           string          `gorm:"column:name;not null"`
	Brand          *string         `gorm:"column:brand"`
	Unit           *string         `gorm:"column:unit"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	IsOnSale       bool            `gorm:"column:is_on_sale;not null;default:false"`
	SalePercentage decimal.Decimal `gorm:"column:sale_percentage;type:numeric(5,2);not null;default:0"`
	Stock          int             `gorm:"column:stock;not null;default:0"`
	TrackInventory bool            `gorm:"column:track_inventory;not null;default:true"`
	CategoryID     uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Tags           pq.StringArray  `gorm:"column:tags;type:text[]"`
	ImageURL       *string         `gorm:"column:image_url"`
	Nutrition      json.RawMessage `gorm:"column:nutrition;type:jsonb"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
