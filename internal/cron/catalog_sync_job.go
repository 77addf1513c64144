package cron

import (
	"context"
	"fmt"

	"github.com/avelasquez/freshbasket-backend/internal/catalog"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
	"github.com/avelasquez/freshbasket-backend/pkg/metrics"
)

const catalogSyncJobName = "catalog-sync"

type catalogSyncer interface {
	Sync(ctx context.Context) (catalog.Counters, error)
}

// CatalogSyncJobParams configure the staging import job.
type CatalogSyncJobParams struct {
	Logger  *logger.Logger
	Syncer  catalogSyncer
	Metrics *metrics.CronJobMetrics
}

// NewCatalogSyncJob wraps the catalog synchronizer as a cron job.
func NewCatalogSyncJob(params CatalogSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("catalog syncer required")
	}
	return &catalogSyncJob{
		logg:    params.Logger,
		syncer:  params.Syncer,
		metrics: params.Metrics,
	}, nil
}

type catalogSyncJob struct {
	logg    *logger.Logger
	syncer  catalogSyncer
	metrics *metrics.CronJobMetrics
}

func (j *catalogSyncJob) Name() string { return catalogSyncJobName }

func (j *catalogSyncJob) Run(ctx context.Context) error {
	counters, err := j.syncer.Sync(ctx)
	if err != nil {
		return fmt.Errorf("catalog sync: %w", err)
	}
	if j.metrics != nil {
		j.metrics.AddItems(catalogSyncJobName, "created", counters.Created)
		j.metrics.AddItems(catalogSyncJobName, "updated", counters.Updated)
		j.metrics.AddItems(catalogSyncJobName, "skipped_missing_sku", counters.SkippedMissingSKU)
		j.metrics.AddItems(catalogSyncJobName, "skipped_invalid_category", counters.SkippedInvalidCategory)
		j.metrics.AddItems(catalogSyncJobName, "skipped_other_error", counters.SkippedOtherError)
	}
	logCtx := j.logg.WithFields(ctx, counters.Fields())
	j.logg.Info(logCtx, "catalog sync run complete")
	return nil
}
