package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StagingProduct is one external-source record awaiting promotion into
// the canonical catalog. The synchronizer reads, never writes, this
// table.
type StagingProduct struct {
	ID             int64            `gorm:"column:id;primaryKey;autoIncrement"`
	SourceID       int64            `gorm:"column:source_id;not null"`
	SKU            string           `gorm:"column:sku"`
	Name           string           `gorm:"column:name"`
	Brand          *string          `gorm:"column:brand"`
	Unit           *string          `gorm:"column:unit"`
	Price          *decimal.Decimal `gorm:"column:price;type:numeric(10,2)"`
	CompareAtPrice *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(10,2)"`
	CategoryID     *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	TagsString     *string          `gorm:"column:tags_string"`
	ImageURL       *string          `gorm:"column:image_url"`
	Stock          *int             `gorm:"column:stock"`
	IsActive       *bool            `gorm:"column:is_active"`
	NutritionJSON  *string          `gorm:"column:nutrition_json"`
	ImportedAt     time.Time        `gorm:"column:imported_at;autoCreateTime"`
}

// TableName keeps the staging table clearly separated from the
// canonical products table.
func (StagingProduct) TableName() string {
	return "staging_products"
}
