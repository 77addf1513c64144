package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestSetNXOnlySetsOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetNX(ctx, "fb:lock:worker", "owner-1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected first SetNX to win")
	}

	ok, err = client.SetNX(ctx, "fb:lock:worker", "owner-2", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected second SetNX to lose")
	}

	value, err := client.Get(ctx, "fb:lock:worker")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "owner-1" {
		t.Fatalf("expected first owner to hold the key, got %q", value)
	}
}

func TestDelRemovesKey(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "fb:lock:worker", "owner", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := client.Del(ctx, "fb:lock:worker"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "fb:lock:worker"); err == nil || err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestLockKey(t *testing.T) {
	client := &Client{}
	if got := client.LockKey("cron-worker"); got != "fb:lock:cron-worker" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.LockKey(""); got != "fb:lock" {
		t.Fatalf("empty scope should skip empty parts, got %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	ctx := context.Background()
	client := &Client{}
	if err := client.Ping(ctx); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if _, err := client.SetNX(ctx, "k", "v", 0); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
