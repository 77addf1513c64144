package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/avelasquez/freshbasket-backend/internal/catalog"
)

type fakeSyncer struct {
	counters catalog.Counters
	err      error
	runs     int
}

func (f *fakeSyncer) Sync(ctx context.Context) (catalog.Counters, error) {
	f.runs++
	return f.counters, f.err
}

func TestCatalogSyncJobRunsSyncer(t *testing.T) {
	syncer := &fakeSyncer{counters: catalog.Counters{Created: 2, Updated: 5, SkippedMissingSKU: 1}}
	job, err := NewCatalogSyncJob(CatalogSyncJobParams{
		Logger: cronTestLogger(),
		Syncer: syncer,
	})
	if err != nil {
		t.Fatalf("NewCatalogSyncJob: %v", err)
	}
	if job.Name() != "catalog-sync" {
		t.Fatalf("name = %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if syncer.runs != 1 {
		t.Fatalf("syncer ran %d times", syncer.runs)
	}
}

func TestCatalogSyncJobPropagatesError(t *testing.T) {
	job, err := NewCatalogSyncJob(CatalogSyncJobParams{
		Logger: cronTestLogger(),
		Syncer: &fakeSyncer{err: errors.New("schema drift")},
	})
	if err != nil {
		t.Fatalf("NewCatalogSyncJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
