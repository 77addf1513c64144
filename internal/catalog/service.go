package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/pkg/config"
	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/avelasquez/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/freshbasket-backend/pkg/errors"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
	"github.com/avelasquez/freshbasket-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Counters reports the fate of every staging row in one sync pass. The
// buckets are mutually exclusive and sum to the input row count.
type Counters struct {
	Created                int
	Updated                int
	SkippedMissingSKU      int
	SkippedInvalidCategory int
	SkippedOtherError      int
}

// Total returns the number of rows the counters account for.
func (c Counters) Total() int {
	return c.Created + c.Updated + c.SkippedMissingSKU + c.SkippedInvalidCategory + c.SkippedOtherError
}

// Fields renders the counters for structured logging.
func (c Counters) Fields() map[string]any {
	return map[string]any{
		"created":                  c.Created,
		"updated":                  c.Updated,
		"skipped_missing_sku":      c.SkippedMissingSKU,
		"skipped_invalid_category": c.SkippedInvalidCategory,
		"skipped_other_error":      c.SkippedOtherError,
	}
}

// rowInput is the validated subset of a staging row.
type rowInput struct {
	Name  string  `validate:"required"`
	Stock int     `validate:"gte=0"`
	Price float64 `validate:"gte=0"`
}

const defaultBatchLogEvery = 500

// ServiceParams configure the catalog synchronizer.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Events eventEmitter
	Config config.SyncConfig
	Logger *logger.Logger
}

// Service promotes staging rows into the canonical product catalog.
type Service struct {
	repo     Repository
	tx       txRunner
	events   eventEmitter
	validate *validator.Validate
	logEvery int
	logg     *logger.Logger
}

// NewService builds the synchronizer.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	logEvery := params.Config.BatchLogEvery
	if logEvery <= 0 {
		logEvery = defaultBatchLogEvery
	}
	return &Service{
		repo:     params.Repo,
		tx:       params.Tx,
		events:   params.Events,
		validate: validator.New(),
		logEvery: logEvery,
		logg:     params.Logger,
	}, nil
}

// Sync promotes the current staging snapshot inside one transaction.
// Individual bad rows are counted and skipped; anything outside the
// per-row skip paths rolls the whole batch back.
func (s *Service) Sync(ctx context.Context) (Counters, error) {
	if err := s.repo.EnsureStagingColumns(ctx); err != nil {
		return Counters{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "staging schema check failed")
	}

	var counters Counters
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.FetchStagingRows(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch staging rows")
		}

		categoryCache := map[uuid.UUID]bool{}
		for i, row := range rows {
			s.syncRow(ctx, repo, row, categoryCache, &counters)
			if (i+1)%s.logEvery == 0 {
				s.logg.Info(s.logg.WithFields(ctx, map[string]any{
					"processed": i + 1,
					"total":     len(rows),
				}), "catalog sync progress")
			}
		}

		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventCatalogSynced,
				AggregateType: enums.AggregateCatalog,
				AggregateID:   uuid.New(),
				Version:       1,
				Data: map[string]any{
					"rowCount":               len(rows),
					"created":                counters.Created,
					"updated":                counters.Updated,
					"skippedMissingSku":      counters.SkippedMissingSKU,
					"skippedInvalidCategory": counters.SkippedInvalidCategory,
					"skippedOtherError":      counters.SkippedOtherError,
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Counters{}, err
	}

	s.logg.Info(s.logg.WithFields(ctx, counters.Fields()), "catalog sync completed")
	return counters, nil
}

func (s *Service) syncRow(ctx context.Context, repo Repository, row models.StagingProduct, categoryCache map[uuid.UUID]bool, counters *Counters) {
	rowCtx := s.logg.WithField(ctx, "staging_id", row.ID)

	sku := strings.TrimSpace(row.SKU)
	if sku == "" {
		counters.SkippedMissingSKU++
		s.logRowSkip(rowCtx, pkgerrors.New(pkgerrors.CodeMissingSKU, "staging row has no sku"))
		return
	}
	rowCtx = s.logg.WithField(rowCtx, "sku", sku)
	if canonical := FormatSKU(row.SourceID); sku != canonical {
		s.logg.Warn(s.logg.WithField(rowCtx, "canonical_sku", canonical),
			"staging sku deviates from canonical source form")
	}

	if row.CategoryID == nil {
		counters.SkippedInvalidCategory++
		s.logRowSkip(rowCtx, pkgerrors.New(pkgerrors.CodeInvalidCategory, "staging row has no category"))
		return
	}
	valid, ok := categoryCache[*row.CategoryID]
	if !ok {
		var err error
		valid, err = s.categoryChainValid(ctx, repo, *row.CategoryID)
		if err != nil {
			counters.SkippedOtherError++
			s.logg.Error(rowCtx, "category lookup failed; skipping row", err)
			return
		}
		categoryCache[*row.CategoryID] = valid
	}
	if !valid {
		counters.SkippedInvalidCategory++
		s.logRowSkip(rowCtx, pkgerrors.New(pkgerrors.CodeInvalidCategory, "staging row references invalid category"))
		return
	}

	input := rowInput{Name: strings.TrimSpace(row.Name)}
	if row.Stock != nil {
		input.Stock = *row.Stock
	}
	if row.Price != nil {
		input.Price, _ = row.Price.Float64()
	}
	if err := s.validate.Struct(input); err != nil {
		counters.SkippedOtherError++
		s.logg.Warn(s.logg.WithField(rowCtx, "error", err.Error()), "staging row failed validation; skipping")
		return
	}

	price := FallbackPrice(input.Name)
	if row.Price != nil && row.Price.IsPositive() {
		price = row.Price.Round(2)
	}
	isOnSale, salePct := saleFields(price, row.CompareAtPrice)
	nutrition := s.parseNutrition(rowCtx, row.NutritionJSON)

	existing, err := repo.FindProductBySKU(ctx, sku)
	switch {
	case err == nil:
		applyStagingRow(existing, row, input, price, isOnSale, salePct, nutrition)
		if err := repo.UpdateProduct(ctx, existing); err != nil {
			counters.SkippedOtherError++
			s.logg.Error(rowCtx, "product update failed; skipping row", err)
			return
		}
		counters.Updated++

	case errors.Is(err, gorm.ErrRecordNotFound):
		product := &models.Product{SKU: sku, TrackInventory: true}
		applyStagingRow(product, row, input, price, isOnSale, salePct, nutrition)
		if err := repo.CreateProduct(ctx, product); err != nil {
			counters.SkippedOtherError++
			s.logg.Error(rowCtx, "product insert failed; skipping row", err)
			return
		}
		counters.Created++

	default:
		counters.SkippedOtherError++
		s.logg.Error(rowCtx, "product lookup failed; skipping row", err)
	}
}

// logRowSkip records a per-row skip with its error code so skip causes
// can be queried from the logs, not only from the counters.
func (s *Service) logRowSkip(ctx context.Context, err *pkgerrors.Error) {
	s.logg.Warn(s.logg.WithField(ctx, "error_code", string(err.Code())), err.Message()+"; skipping")
}

// categoryChainValid walks the parent chain iteratively. A missing
// node or a chain that fails to reach a root within MaxCategoryDepth
// (bad data introducing a cycle) makes the reference invalid.
func (s *Service) categoryChainValid(ctx context.Context, repo Repository, id uuid.UUID) (bool, error) {
	current := id
	for depth := 0; depth < models.MaxCategoryDepth; depth++ {
		category, err := repo.FindCategory(ctx, current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		if category.ParentID == nil {
			return true, nil
		}
		current = *category.ParentID
	}
	return false, nil
}

// applyStagingRow copies staging values onto the product, leaving the
// identity fields (id, sku) untouched.
func applyStagingRow(product *models.Product, row models.StagingProduct, input rowInput, price decimal.Decimal, isOnSale bool, salePct decimal.Decimal, nutrition json.RawMessage) {
	sourceID := row.SourceID
	product.SourceID = &sourceID
	product.Name = input.Name
	product.Brand = row.Brand
	product.Unit = row.Unit
	product.Price = price
	product.IsOnSale = isOnSale
	product.SalePercentage = salePct
	product.Stock = input.Stock
	product.CategoryID = *row.CategoryID
	product.Tags = splitTags(row.TagsString)
	product.ImageURL = row.ImageURL
	product.Nutrition = nutrition
	product.IsActive = row.IsActive == nil || *row.IsActive
}

// parseNutrition tolerates malformed blobs: a parse failure logs a
// warning and substitutes an empty object, never aborting the row.
func (s *Service) parseNutrition(ctx context.Context, raw *string) json.RawMessage {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return json.RawMessage("{}")
	}
	trimmed := strings.TrimSpace(*raw)
	if !json.Valid([]byte(trimmed)) {
		s.logg.Warn(ctx, "malformed nutrition json; substituting empty object")
		return json.RawMessage("{}")
	}
	return json.RawMessage(trimmed)
}

func splitTags(raw *string) pq.StringArray {
	if raw == nil {
		return nil
	}
	parts := strings.Split(*raw, ",")
	tags := make(pq.StringArray, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
