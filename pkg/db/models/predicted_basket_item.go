package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictedBasketItem is one predicted product line. IsAccepted lets the
// user exclude single lines before bulk-accepting the basket.
type PredictedBasketItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BasketID        uuid.UUID `gorm:"column:basket_id;type:uuid;not null;uniqueIndex:ux_predicted_basket_items_basket_product"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_predicted_basket_items_basket_product"`
	Quantity        int       `gorm:"column:quantity;not null;default:1"`
	ConfidenceScore float64   `gorm:"column:confidence_score;type:numeric(4,3);not null;default:0"`
	IsAccepted      bool      `gorm:"column:is_accepted;not null;default:true"`
	Position        int       `gorm:"column:position;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
