package cron

import (
	"context"
	"fmt"

	"github.com/avelasquez/freshbasket-backend/internal/baskets"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
	"github.com/avelasquez/freshbasket-backend/pkg/metrics"
)

const basketGenerationJobName = "basket-generation"

type basketGenerator interface {
	Run(ctx context.Context) (baskets.GeneratorSummary, error)
}

// BasketGenerationJobParams configure the weekly generation job.
type BasketGenerationJobParams struct {
	Logger    *logger.Logger
	Generator basketGenerator
	Metrics   *metrics.CronJobMetrics
}

// NewBasketGenerationJob wraps the basket generator as a cron job.
func NewBasketGenerationJob(params BasketGenerationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("basket generator required")
	}
	return &basketGenerationJob{
		logg:      params.Logger,
		generator: params.Generator,
		metrics:   params.Metrics,
	}, nil
}

type basketGenerationJob struct {
	logg      *logger.Logger
	generator basketGenerator
	metrics   *metrics.CronJobMetrics
}

func (j *basketGenerationJob) Name() string { return basketGenerationJobName }

func (j *basketGenerationJob) Run(ctx context.Context) error {
	summary, err := j.generator.Run(ctx)
	j.recordItems(summary)
	if err != nil {
		return fmt.Errorf("basket generation: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"eligible":         summary.Eligible,
		"generated":        summary.Generated,
		"skipped_existing": summary.SkippedExisting,
		"skipped_empty":    summary.SkippedEmpty,
		"failed":           summary.Failed,
	})
	j.logg.Info(logCtx, "basket generation run complete")
	return nil
}

func (j *basketGenerationJob) recordItems(summary baskets.GeneratorSummary) {
	if j.metrics == nil {
		return
	}
	j.metrics.AddItems(basketGenerationJobName, "generated", summary.Generated)
	j.metrics.AddItems(basketGenerationJobName, "skipped_existing", summary.SkippedExisting)
	j.metrics.AddItems(basketGenerationJobName, "skipped_empty", summary.SkippedEmpty)
	j.metrics.AddItems(basketGenerationJobName, "failed", summary.Failed)
}
