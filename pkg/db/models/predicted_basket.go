package models

import (
	"time"

	"github.com/avelasquez/freshbasket-backend/pkg/enums"
	"github.com/google/uuid"
)

// PredictedBasket is the persisted output of one generation run for one
// user. At most one basket exists per (user_id, week_of).
type PredictedBasket struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_predicted_baskets_user_week"`
	WeekOf          time.Time             `gorm:"column:week_of;type:date;not null;uniqueIndex:ux_predicted_baskets_user_week"`
	Status          enums.BasketStatus    `gorm:"column:status;not null;default:'generated'"`
	ConfidenceScore float64               `gorm:"column:confidence_score;type:numeric(4,3);not null;default:0"`
	Items           []PredictedBasketItem `gorm:"foreignKey:BasketID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
