package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
)

// GormRepository is the GORM-backed cart repository.
type GormRepository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &GormRepository{db: tx}
}

// FindActiveByUser returns the user's active cart with its items.
func (r *GormRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("user_id = ? AND is_active", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart.
func (r *GormRepository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// FindItem returns the line for (cart, product).
func (r *GormRepository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *GormRepository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItem persists quantity and unit price for an existing line.
func (r *GormRepository) UpdateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
		}).Error
}

// DeleteItem removes the line for (cart, product). Deleting an absent
// line is not an error.
func (r *GormRepository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{}).Error
}
