package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	pkgerrors "github.com/avelasquez/freshbasket-backend/pkg/errors"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
	"github.com/avelasquez/freshbasket-backend/pkg/pricing"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartLoader interface {
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

// Service turns the active cart into an order.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error)
}

// ServiceParams configure the order service.
type ServiceParams struct {
	Repo    Repository
	Carts   cartLoader
	Tx      txRunner
	TaxRate decimal.Decimal
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	repo    Repository
	carts   cartLoader
	tx      txRunner
	taxRate decimal.Decimal
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		carts:   params.Carts,
		tx:      params.Tx,
		taxRate: params.TaxRate,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// CreateOrder snapshots the active cart into an order, stamping the
// temporal features the prediction model consumes. The features are
// validated before anything is written; the order, its items, and the
// cart archival commit together.
func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.carts.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	now := s.now()
	var priorOrderAt *time.Time
	prior, err := s.repo.LatestByUser(ctx, userID)
	switch {
	case err == nil:
		priorOrderAt = &prior.CreatedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first order
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prior order")
	}

	features, err := ComputeTemporalFeatures(now, priorOrderAt)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(cart.Items))
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	totals := pricing.CartTotals(lines, s.taxRate)

	order := &models.Order{
		UserID:              userID,
		OrderDow:            features.OrderDow,
		OrderHourOfDay:      features.OrderHourOfDay,
		DaysSincePriorOrder: features.DaysSincePriorOrder,
		Subtotal:            totals.Subtotal,
		Tax:                 totals.Tax,
		Total:               totals.Total,
		Items:               items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := repo.DeactivateCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	orderCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   order.ID.String(),
		"user_id":    userID.String(),
		"item_count": totals.ItemCount,
	})
	s.logg.Info(orderCtx, "order created")
	return order, nil
}
