package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
)

// Repository defines the persistence surface required by the cart service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
}
