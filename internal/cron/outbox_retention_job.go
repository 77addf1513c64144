package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/avelasquez/freshbasket-backend/pkg/logger"
)

const (
	outboxRetentionJobName = "outbox-retention"
	outboxRetentionDays    = 30
)

type publishedEventPruner interface {
	DeletePublishedBefore(cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configure the published-event pruning job.
type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	Repository    publishedEventPruner
	RetentionDays int
}

// NewOutboxRetentionJob builds the job that prunes outbox rows already
// published longer ago than the retention window.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = outboxRetentionDays
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	repo      publishedEventPruner
	retention int
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return outboxRetentionJobName }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeletePublishedBefore(cutoff)
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}
