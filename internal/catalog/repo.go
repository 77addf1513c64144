package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
)

// Repository defines the persistence surface required by the synchronizer.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureStagingColumns(ctx context.Context) error
	FetchStagingRows(ctx context.Context) ([]models.StagingProduct, error)
	FindProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// stagingColumns are the staging fields the sync reads. A missing column
// means the external exporter changed shape and the sync must not guess.
var stagingColumns = []string{
	"source_id",
	"sku",
	"name",
	"brand",
	"unit",
	"price",
	"compare_at_price",
	"category_id",
	"tags_string",
	"image_url",
	"stock",
	"is_active",
	"nutrition_json",
}

// GormRepository is the GORM-backed catalog repository.
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

// EnsureStagingColumns fails when the staging table is missing any
// column the sync depends on.
func (r *GormRepository) EnsureStagingColumns(ctx context.Context) error {
	migrator := r.db.WithContext(ctx).Migrator()
	if !migrator.HasTable(&models.StagingProduct{}) {
		return fmt.Errorf("staging table %q does not exist", models.StagingProduct{}.TableName())
	}
	for _, column := range stagingColumns {
		if !migrator.HasColumn(&models.StagingProduct{}, column) {
			return fmt.Errorf("staging table missing column %q", column)
		}
	}
	return nil
}

// FetchStagingRows loads the full staging snapshot in import order.
func (r *GormRepository) FetchStagingRows(ctx context.Context) ([]models.StagingProduct, error) {
	var rows []models.StagingProduct
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}

// FindProductBySKU returns the canonical product carrying the SKU.
func (r *GormRepository) FindProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new canonical product.
func (r *GormRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateProduct saves the full product row in place.
func (r *GormRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// FindCategory returns the category row, gorm.ErrRecordNotFound when absent.
func (r *GormRepository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}
