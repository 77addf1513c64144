package baskets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/freshbasket-backend/pkg/config"
	"github.com/avelasquez/freshbasket-backend/pkg/db"
	"github.com/avelasquez/freshbasket-backend/pkg/db/models"
	"github.com/avelasquez/freshbasket-backend/pkg/enums"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
	"github.com/avelasquez/freshbasket-backend/pkg/outbox"
	"github.com/avelasquez/freshbasket-backend/pkg/prediction"
)

const basketUserWeekConstraint = "ux_predicted_baskets_user_week"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type predictor interface {
	PredictBasket(ctx context.Context, userID uuid.UUID) (*prediction.Basket, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// GeneratorSummary accounts for every eligible user in one run.
type GeneratorSummary struct {
	Eligible        int
	Generated       int
	SkippedExisting int
	SkippedEmpty    int
	Failed          int
}

// Generator produces one predicted basket per eligible user per week.
type Generator struct {
	repo      Repository
	tx        txRunner
	predictor predictor
	events    eventEmitter
	delay     time.Duration
	logg      *logger.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// GeneratorParams collects the generator's dependencies.
type GeneratorParams struct {
	Repo      Repository
	Tx        txRunner
	Predictor predictor
	Events    eventEmitter
	Config    config.BasketsConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewGenerator validates params and builds a Generator.
func NewGenerator(params GeneratorParams) (*Generator, error) {
	if params.Repo == nil {
		return nil, errors.New("basket repository is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Predictor == nil {
		return nil, errors.New("prediction client is required")
	}
	if params.Events == nil {
		return nil, errors.New("event emitter is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	nowFn := params.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Generator{
		repo:      params.Repo,
		tx:        params.Tx,
		predictor: params.Predictor,
		events:    params.Events,
		delay:     params.Config.InterUserDelay,
		logg:      params.Logger,
		now:       nowFn,
		sleep:     sleepCtx,
	}, nil
}

// Run walks eligible users sequentially and generates a basket for each
// who lacks one for the current week. One user's failure never stops the
// run; the summary reports what happened to every user.
func (g *Generator) Run(ctx context.Context) (GeneratorSummary, error) {
	summary := GeneratorSummary{}

	users, err := g.repo.EligibleUsers(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing eligible users: %w", err)
	}
	summary.Eligible = len(users)
	weekOf := WeekOf(g.now())

	for i, user := range users {
		if i > 0 && g.delay > 0 {
			if err := g.sleep(ctx, g.delay); err != nil {
				return summary, err
			}
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		userCtx := g.logg.WithUserID(ctx, user.ID.String())
		outcome, err := g.generateForUser(userCtx, user.ID, weekOf)
		switch outcome {
		case outcomeGenerated:
			summary.Generated++
		case outcomeSkippedExisting:
			summary.SkippedExisting++
		case outcomeSkippedEmpty:
			summary.SkippedEmpty++
			g.logg.Info(userCtx, "no active products in prediction, basket skipped")
		default:
			summary.Failed++
			g.logg.Error(userCtx, "basket generation failed", err)
		}
	}

	return summary, nil
}

type generateOutcome int

const (
	outcomeFailed generateOutcome = iota
	outcomeGenerated
	outcomeSkippedExisting
	outcomeSkippedEmpty
)

func (g *Generator) generateForUser(ctx context.Context, userID uuid.UUID, weekOf time.Time) (generateOutcome, error) {
	exists, err := g.repo.BasketExists(ctx, userID, weekOf)
	if err != nil {
		return outcomeFailed, fmt.Errorf("checking existing basket: %w", err)
	}
	if exists {
		return outcomeSkippedExisting, nil
	}

	// The prediction call runs outside any transaction so a slow
	// upstream never pins a database connection.
	predicted, err := g.predictor.PredictBasket(ctx, userID)
	if err != nil {
		return outcomeFailed, err
	}

	products, err := g.repo.ActiveProductsByIDs(ctx, predicted.ProductIDs)
	if err != nil {
		return outcomeFailed, fmt.Errorf("resolving predicted products: %w", err)
	}
	if len(products) == 0 {
		return outcomeSkippedEmpty, nil
	}

	activeByID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		activeByID[p.ID] = p
	}

	basket := &models.PredictedBasket{
		UserID: userID,
		WeekOf: weekOf,
		Status: enums.BasketStatusGenerated,
	}
	var scoreSum float64
	position := 0
	for _, productID := range predicted.ProductIDs {
		product, ok := activeByID[productID]
		if !ok {
			continue
		}
		score := predicted.ProductScores[productID]
		scoreSum += score
		basket.Items = append(basket.Items, models.PredictedBasketItem{
			ProductID:       product.ID,
			Quantity:        1,
			ConfidenceScore: score,
			IsAccepted:      true,
			Position:        position,
		})
		position++
	}
	// Basket confidence is the mean of the kept item scores, not the
	// service's overall score, so dropping inactive products is reflected.
	if len(basket.Items) > 0 {
		basket.ConfidenceScore = scoreSum / float64(len(basket.Items))
	}

	err = g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := g.repo.WithTx(tx)
		if err := repo.CreateBasket(ctx, basket); err != nil {
			return err
		}
		return g.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBasketGenerated,
			AggregateType: enums.AggregatePredictedBasket,
			AggregateID:   basket.ID,
			Data: map[string]any{
				"basketId":        basket.ID,
				"userId":          userID,
				"weekOf":          weekOf.Format("2006-01-02"),
				"itemCount":       len(basket.Items),
				"confidenceScore": basket.ConfidenceScore,
			},
			Version: 1,
		})
	})
	if err != nil {
		// Another run won the (user, week) slot between our existence
		// check and the insert. Treat it as already generated.
		if db.IsUniqueViolation(err, basketUserWeekConstraint) {
			return outcomeSkippedExisting, nil
		}
		return outcomeFailed, fmt.Errorf("persisting basket: %w", err)
	}

	g.logg.Info(ctx, "predicted basket generated")
	return outcomeGenerated, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
