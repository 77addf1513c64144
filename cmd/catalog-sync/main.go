package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/avelasquez/freshbasket-backend/internal/catalog"
	"github.com/avelasquez/freshbasket-backend/pkg/config"
	"github.com/avelasquez/freshbasket-backend/pkg/db"
	"github.com/avelasquez/freshbasket-backend/pkg/logger"
	"github.com/avelasquez/freshbasket-backend/pkg/migrate"
	"github.com/avelasquez/freshbasket-backend/pkg/outbox"
)

// One-shot staging import for operators. The cron worker runs the same
// sync on a schedule; this binary exists for manual reruns after a bad
// feed drop.
func main() {
	logg := logger.New(logger.Options{ServiceName: "catalog-sync"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "catalog-sync"

	logg = logger.New(logger.Options{
		ServiceName: "catalog-sync",
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

	service, err := catalog.NewService(catalog.ServiceParams{
		Repo:   catalog.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Events: outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Config: cfg.Sync,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting catalog sync")

	counters, err := service.Sync(ctx)
	if err != nil {
		logg.Error(ctx, "catalog sync failed", err)
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, counters.Fields()), "catalog sync finished")
}
