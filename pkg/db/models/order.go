package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order carries the temporal features the prediction model was trained
// on. OrderDow uses the fixed 0=Sunday…6=Saturday mapping; the features
// are validated before any write because a wrong encoding degrades
// prediction quality without ever raising an error downstream.
type Order struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index:ix_orders_user_created"`
	OrderDow            int             `gorm:"column:order_dow;not null"`
	OrderHourOfDay      int             `gorm:"column:order_hour_of_day;not null"`
	DaysSincePriorOrder *int            `gorm:"column:days_since_prior_order"`
	Subtotal            decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null;default:0"`
	Tax                 decimal.Decimal `gorm:"column:tax;type:numeric(10,2);not null;default:0"`
	Total               decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null;default:0"`
	Items               []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime;index:ix_orders_user_created"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one purchased line, price frozen at checkout.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
