package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStaleBasketStore struct {
	lastCutoff time.Time
	called     int
	deleted    int64
	err        error
}

func (f *fakeStaleBasketStore) DeleteStaleOpenBaskets(ctx context.Context, weekOfBefore time.Time) (int64, error) {
	f.called++
	f.lastCutoff = weekOfBefore
	return f.deleted, f.err
}

func newBasketCleanupJob(t *testing.T, store *fakeStaleBasketStore, retention int) *basketCleanupJob {
	t.Helper()
	jobIface, err := NewBasketCleanupJob(BasketCleanupJobParams{
		Logger:         cronTestLogger(),
		Store:          store,
		RetentionWeeks: retention,
	})
	if err != nil {
		t.Fatalf("NewBasketCleanupJob: %v", err)
	}
	job, ok := jobIface.(*basketCleanupJob)
	if !ok {
		t.Fatalf("expected basketCleanupJob, got %T", jobIface)
	}
	return job
}

func TestBasketCleanupJobCutoffIsWeekAligned(t *testing.T) {
	store := &fakeStaleBasketStore{deleted: 3}
	job := newBasketCleanupJob(t, store, 2)
	// A Wednesday; the containing week starts Sunday April 13.
	job.now = func() time.Time {
		return time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)
	if !store.lastCutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", store.lastCutoff, want)
	}
	if store.called != 1 {
		t.Fatalf("store called %d times", store.called)
	}
}

func TestBasketCleanupJobDefaultsRetention(t *testing.T) {
	store := &fakeStaleBasketStore{}
	job := newBasketCleanupJob(t, store, 0)
	if job.retention != defaultRetentionWeeks {
		t.Fatalf("retention = %d, want %d", job.retention, defaultRetentionWeeks)
	}
}

func TestBasketCleanupJobPropagatesError(t *testing.T) {
	store := &fakeStaleBasketStore{err: errors.New("boom")}
	job := newBasketCleanupJob(t, store, 1)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
