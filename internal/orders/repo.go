package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/internal/repo"
	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
)

// Repository defines the persistence surface required by the order service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LatestByUser(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	DeactivateCart(ctx context.Context, cartID uuid.UUID) error
}

// GormRepository is the GORM-backed order repository.
type GormRepository struct {
	base repo.Base
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &GormRepository{base: repo.NewBase(tx)}
}

// LatestByUser returns the user's most recent order.
func (r *GormRepository) LatestByUser(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts the order with its items.
func (r *GormRepository) Create(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Create(order).Error
}

// DeactivateCart archives the cart the order was placed from.
func (r *GormRepository) DeactivateCart(ctx context.Context, cartID uuid.UUID) error {
	return r.base.DB(ctx).Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("is_active", false).Error
}
