package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/avelasquez/freshbasket-backend/internal/baskets"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
)

const (
	basketCleanupJobName  = "basket-cleanup"
	defaultRetentionWeeks = 4
)

type staleBasketStore interface {
	DeleteStaleOpenBaskets(ctx context.Context, weekOfBefore time.Time) (int64, error)
}

// BasketCleanupJobParams configure the stale basket cleanup job.
type BasketCleanupJobParams struct {
	Logger         *logger.Logger
	Store          staleBasketStore
	RetentionWeeks int
}

// NewBasketCleanupJob builds the job that drops open baskets whose week
// passed more than the retention window ago.
func NewBasketCleanupJob(params BasketCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("basket store required")
	}
	retention := params.RetentionWeeks
	if retention <= 0 {
		retention = defaultRetentionWeeks
	}
	return &basketCleanupJob{
		logg:      params.Logger,
		store:     params.Store,
		retention: retention,
		now:       time.Now,
	}, nil
}

type basketCleanupJob struct {
	logg      *logger.Logger
	store     staleBasketStore
	retention int
	now       func() time.Time
}

func (j *basketCleanupJob) Name() string { return basketCleanupJobName }

func (j *basketCleanupJob) Run(ctx context.Context) error {
	cutoff := baskets.WeekOf(j.now()).AddDate(0, 0, -7*j.retention)
	deleted, err := j.store.DeleteStaleOpenBaskets(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("basket cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff_week":     cutoff.Format("2006-01-02"),
		"retention_weeks": j.retention,
		"rows_deleted":    deleted,
	})
	j.logg.Info(logCtx, "stale basket cleanup complete")
	return nil
}
