package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is an adjacency-list tree node. The parent chain must
// terminate at a null parent within MaxCategoryDepth lookups.
type Category struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// MaxCategoryDepth bounds parent-chain walks so bad data cannot loop.
const MaxCategoryDepth = 16
