package models

import (
	"time"

	"github.com/google/uuid"
)

// User carries only the flags the core reads. A user is eligible for
// basket generation when active, email-verified, and opted in.
type User struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string    `gorm:"column:email;not null;uniqueIndex:ux_users_email"`
	IsActive          bool      `gorm:"column:is_active;not null;default:true"`
	EmailVerified     bool      `gorm:"column:email_verified;not null;default:false"`
	AutoBasketEnabled bool      `gorm:"column:auto_basket_enabled;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
