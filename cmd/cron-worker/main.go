package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avelasquez/freshbasket-backend/api/ops"
	"github.com/avelasquez/freshbasket-backend/internal/baskets"
	"github.com/avelasquez/freshbasket-backend/internal/catalog"
	"github.com/avelasquez/freshbasket-backend/internal/cron"
	"github.com/avelasquez/freshbasket-backend/pkg/config"
	"github.com/avelasquez/freshbasket-backend/pkg/db"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
	"github.com/avelasquez/freshbasket-backend/pkg/metrics"
	"github.com/avelasquez/freshbasket-backend/pkg/migrate"
	"github.com/avelasquez/freshbasket-backend/pkg/outbox"
	"github.com/avelasquez/freshbasket-backend/pkg/prediction"
	"github.com/avelasquez/freshbasket-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	predictionClient, err := prediction.NewClient(cfg.Prediction)
	if err != nil {
		logg.Error(context.Background(), "failed to create prediction client", err)
		os.Exit(1)
	}

	registerer := prometheus.NewRegistry()
	jobMetrics := metrics.NewCronJobMetrics(registerer)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	basketRepo := baskets.NewRepository(dbClient.DB())

	generator, err := baskets.NewGenerator(baskets.GeneratorParams{
		Repo:      basketRepo,
		Tx:        dbClient,
		Predictor: predictionClient,
		Events:    outboxService,
		Config:    cfg.Baskets,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create basket generator", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:   catalog.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Events: outboxService,
		Config: cfg.Sync,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	generationJob, err := cron.NewBasketGenerationJob(cron.BasketGenerationJobParams{
		Logger:    logg,
		Generator: generator,
		Metrics:   jobMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create basket generation job", err)
		os.Exit(1)
	}
	cleanupJob, err := cron.NewBasketCleanupJob(cron.BasketCleanupJobParams{
		Logger:         logg,
		Store:          basketRepo,
		RetentionWeeks: cfg.Baskets.RetentionWeeks,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create basket cleanup job", err)
		os.Exit(1)
	}
	syncJob, err := cron.NewCatalogSyncJob(cron.CatalogSyncJobParams{
		Logger:  logg,
		Syncer:  catalogService,
		Metrics: jobMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog sync job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outbox.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(syncJob, generationJob, cleanupJob, retentionJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	opsServer := &http.Server{
		Addr: ":" + cfg.App.Port,
		Handler: ops.NewRouter(logg, registerer, map[string]ops.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		}),
	}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "ops server stopped unexpectedly", err)
		}
	}()
	defer func() {
		if err := opsServer.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "error shutting down ops server", err)
		}
	}()

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
