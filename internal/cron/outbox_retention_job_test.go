package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePublishedEventPruner struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakePublishedEventPruner) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

func newRetentionJob(t *testing.T, repo *fakePublishedEventPruner) *outboxRetentionJob {
	t.Helper()
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     cronTestLogger(),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job, ok := jobIface.(*outboxRetentionJob)
	if !ok {
		t.Fatalf("expected outboxRetentionJob, got %T", jobIface)
	}
	return job
}

func TestOutboxRetentionJobPrunesPublishedRows(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakePublishedEventPruner{}
	job := newRetentionJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantCutoff := now.Add(-outboxRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(wantCutoff) {
		t.Fatalf("cutoff = %s, want %s", repo.lastCutoff, wantCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("repo called %d times", repo.called)
	}
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	job := newRetentionJob(t, &fakePublishedEventPruner{err: errors.New("boom")})
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
