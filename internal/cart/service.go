package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/avelasquez/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/freshbasket-backend/pkg/errors"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
	"github.com/avelasquez/freshbasket-backend/pkg/outbox"
	"github.com/avelasquez/freshbasket-backend/pkg/pricing"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type basketStore interface {
	FindByIDAndUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*models.PredictedBasket, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.BasketStatus) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes cart mutation and read operations.
type Service interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error)
	SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	MergeGuestCart(ctx context.Context, userID uuid.UUID, guestItems []GuestItem) (*MergeResult, error)
	AcceptPredictedBasket(ctx context.Context, userID, basketID uuid.UUID) (*AcceptResult, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*View, error)
}

// ServiceParams configure the cart service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Products productLoader
	Baskets  basketStore
	Events   eventEmitter
	TaxRate  decimal.Decimal
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	products productLoader
	baskets  basketStore
	events   eventEmitter
	taxRate  decimal.Decimal
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must be non-negative")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		baskets:  params.Baskets,
		events:   params.Events,
		taxRate:  params.TaxRate,
		logg:     params.Logger,
	}, nil
}

// GuestItem is one line carried over from an anonymous session.
type GuestItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// MergeStatus describes what happened to one guest line during a merge.
type MergeStatus string

const (
	MergeAdded   MergeStatus = "added"
	MergeMerged  MergeStatus = "merged"
	MergeSkipped MergeStatus = "skipped"
)

// MergeOutcome is the per-line report of a guest cart merge.
type MergeOutcome struct {
	ProductID uuid.UUID
	Status    MergeStatus
	Reason    string
}

// MergeResult reports every guest line and the resulting cart.
type MergeResult struct {
	Outcomes []MergeOutcome
	Cart     *View
}

// SkippedLine names a predicted line that could not be applied.
type SkippedLine struct {
	ProductID uuid.UUID
	Reason    string
}

// AcceptResult reports how a predicted basket was applied to the cart.
type AcceptResult struct {
	Applied int
	Skipped []SkippedLine
	Cart    *View
}

// AddItem adds the product to the user's cart or increments the existing
// line. The stock check covers the combined quantity, and the line's unit
// price is refreshed to the current effective price.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error) {
	if err := validateLineArgs(userID, productID); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.ensureActiveCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		return s.applyLine(ctx, repo, cart, productID, qty, true)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// SetItemQuantity sets the line to an absolute quantity. A quantity
// below one removes the line.
func (s *service) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*View, error) {
	if err := validateLineArgs(userID, productID); err != nil {
		return nil, err
	}
	if qty < 1 {
		return s.RemoveItem(ctx, userID, productID)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.ensureActiveCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		return s.applyLine(ctx, repo, cart, productID, qty, false)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes the line if present. Removing an absent line, or
// removing from a user with no cart yet, succeeds.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	if err := validateLineArgs(userID, productID); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		return repo.DeleteItem(ctx, cart.ID, productID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// MergeGuestCart folds guest session lines into the user's cart. Each
// line succeeds or is skipped on its own; a bad line never fails the
// merge, and the caller gets a per-line report.
func (s *service) MergeGuestCart(ctx context.Context, userID uuid.UUID, guestItems []GuestItem) (*MergeResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	outcomes := make([]MergeOutcome, 0, len(guestItems))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.ensureActiveCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		for _, guest := range guestItems {
			outcomes = append(outcomes, s.mergeLine(ctx, repo, cart, guest))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MergeResult{Outcomes: outcomes, Cart: view}, nil
}

func (s *service) mergeLine(ctx context.Context, repo Repository, cart *models.Cart, guest GuestItem) MergeOutcome {
	outcome := MergeOutcome{ProductID: guest.ProductID}
	if guest.ProductID == uuid.Nil || guest.Quantity < 1 {
		outcome.Status = MergeSkipped
		outcome.Reason = "invalid line"
		return outcome
	}

	existing, err := repo.FindItem(ctx, cart.ID, guest.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		outcome.Status = MergeSkipped
		outcome.Reason = "load line failed"
		return outcome
	}

	if err := s.applyLine(ctx, repo, cart, guest.ProductID, guest.Quantity, true); err != nil {
		outcome.Status = MergeSkipped
		outcome.Reason = mergeSkipReason(err)
		return outcome
	}

	if existing != nil {
		outcome.Status = MergeMerged
	} else {
		outcome.Status = MergeAdded
	}
	return outcome
}

// AcceptPredictedBasket applies the basket's accepted lines to the cart
// at current effective prices. Unavailable lines are skipped, never
// fatal, and the basket always ends up accepted.
func (s *service) AcceptPredictedBasket(ctx context.Context, userID, basketID uuid.UUID) (*AcceptResult, error) {
	if userID == uuid.Nil || basketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and basket id are required")
	}
	if s.baskets == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "basket store not configured")
	}

	result := &AcceptResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		basket, err := s.baskets.FindByIDAndUser(ctx, tx, basketID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "predicted basket not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load predicted basket")
		}
		if basket.Status == enums.BasketStatusAccepted {
			return pkgerrors.New(pkgerrors.CodeConflict, "basket already accepted")
		}
		if basket.Status == enums.BasketStatusRejected {
			return pkgerrors.New(pkgerrors.CodeConflict, "basket was rejected")
		}

		repo := s.repo.WithTx(tx)
		cart, err := s.ensureActiveCart(ctx, repo, userID)
		if err != nil {
			return err
		}

		for _, item := range basket.Items {
			if !item.IsAccepted {
				continue
			}
			qty := item.Quantity
			if qty < 1 {
				qty = 1
			}
			if err := s.applyLine(ctx, repo, cart, item.ProductID, qty, true); err != nil {
				result.Skipped = append(result.Skipped, SkippedLine{
					ProductID: item.ProductID,
					Reason:    mergeSkipReason(err),
				})
				continue
			}
			result.Applied++
		}

		if err := s.baskets.UpdateStatus(ctx, tx, basket.ID, enums.BasketStatusAccepted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark basket accepted")
		}

		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventBasketAccepted,
				AggregateType: enums.AggregatePredictedBasket,
				AggregateID:   basket.ID,
				Version:       1,
				Data: map[string]any{
					"basketId":     basket.ID.String(),
					"userId":       userID.String(),
					"appliedCount": result.Applied,
					"skippedCount": len(result.Skipped),
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Cart = view
	return result, nil
}

// GetCart returns the read view with recomputed totals. A user without
// a cart gets an empty view.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyView(userID, s.taxRate), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return buildView(cart, s.taxRate), nil
}

// applyLine writes one (cart, product) line. With increment set, the new
// quantity is stacked on the existing line; otherwise it replaces it.
// The stock check always covers the final quantity.
func (s *service) applyLine(ctx context.Context, repo Repository, cart *models.Cart, productID uuid.UUID, qty int, increment bool) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	existing, err := repo.FindItem(ctx, cart.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	finalQty := qty
	if increment && existing != nil {
		finalQty += existing.Quantity
	}
	if !pricing.HasSufficientStock(product, finalQty) {
		return pkgerrors.NewInsufficientStock(product.Stock)
	}

	unitPrice := pricing.EffectivePrice(product)
	if existing != nil {
		existing.Quantity = finalQty
		existing.UnitPrice = unitPrice
		return repo.UpdateItem(ctx, existing)
	}
	return repo.CreateItem(ctx, &models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  finalQty,
		UnitPrice: unitPrice,
	})
}

func (s *service) ensureActiveCart(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	created, err := repo.Create(ctx, &models.Cart{UserID: userID, IsActive: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func validateLineArgs(userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return nil
}

func mergeSkipReason(err error) string {
	if coded := pkgerrors.As(err); coded != nil {
		switch coded.Code() {
		case pkgerrors.CodeInsufficientStock:
			return "insufficient stock"
		case pkgerrors.CodeNotFound:
			return "product not found"
		case pkgerrors.CodeValidation:
			return coded.Message()
		}
	}
	return "line could not be applied"
}
