package baskets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/avelasquez/freshbasket-backend/pkg/enums"
)

// Repository defines the persistence surface for predicted baskets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EligibleUsers(ctx context.Context) ([]models.User, error)
	BasketExists(ctx context.Context, userID uuid.UUID, weekOf time.Time) (bool, error)
	ActiveProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CreateBasket(ctx context.Context, basket *models.PredictedBasket) error
	DeleteStaleOpenBaskets(ctx context.Context, weekOfBefore time.Time) (int64, error)
}

// GormRepository is the GORM-backed basket repository.
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

// EligibleUsers returns active, verified users who opted in to basket
// generation, in stable id order.
func (r *GormRepository) EligibleUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("is_active AND email_verified AND auto_basket_enabled").
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// BasketExists reports whether the user already has a basket for weekOf.
func (r *GormRepository) BasketExists(ctx context.Context, userID uuid.UUID, weekOf time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PredictedBasket{}).
		Where("user_id = ? AND week_of = ?", userID, weekOf).
		Count(&count).Error
	return count > 0, err
}

// ActiveProductsByIDs returns the active catalog rows among ids.
func (r *GormRepository) ActiveProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active", ids).
		Find(&products).Error
	return products, err
}

// CreateBasket inserts the basket with its items.
func (r *GormRepository) CreateBasket(ctx context.Context, basket *models.PredictedBasket) error {
	return r.db.WithContext(ctx).Create(basket).Error
}

// DeleteStaleOpenBaskets removes baskets still awaiting a decision whose
// week key predates weekOfBefore.
func (r *GormRepository) DeleteStaleOpenBaskets(ctx context.Context, weekOfBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ? AND week_of < ?",
			[]enums.BasketStatus{enums.BasketStatusGenerated, enums.BasketStatusModified},
			weekOfBefore).
		Delete(&models.PredictedBasket{})
	return result.RowsAffected, result.Error
}

// FindByIDAndUser returns the basket with items when it belongs to the
// user. It accepts an optional transaction so basket acceptance can run
// inside the cart's transaction.
func (r *GormRepository) FindByIDAndUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*models.PredictedBasket, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var basket models.PredictedBasket
	err := db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&basket).Error
	if err != nil {
		return nil, err
	}
	return &basket, nil
}

// UpdateStatus transitions the basket's lifecycle status.
func (r *GormRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.BasketStatus) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Model(&models.PredictedBasket{}).
		Where("id = ?", id).
		Update("status", status).Error
}
