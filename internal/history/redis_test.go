package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewRedisBackend(client, "test", time.Hour, 24*time.Hour), mr
}

var started = time.Date(2024, 5, 18, 7, 0, 0, 0, time.UTC)

func TestRedisBackend_StoreAndGet(t *testing.T) {
	backend, mr := setupTestRedis(t)
	ctx := context.Background()

	run := &Run{
		RunID:     "run-1",
		TriggerID: "trg-1",
		State:     "done",
		Due:       2,
		Overdue:   1,
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
	}
	if err := backend.Store(ctx, run); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	got, err := backend.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil")
	}
	if got.TriggerID != "trg-1" || got.State != "done" || got.Due != 2 || got.Overdue != 1 {
		t.Errorf("unexpected run %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
	if got.Failed() {
		t.Error("successful run reported as failed")
	}

	if ttl := mr.TTL("test:run:run-1"); ttl != time.Hour {
		t.Errorf("success TTL = %v, want 1h", ttl)
	}
}

func TestRedisBackend_FailedRunKeepsLonger(t *testing.T) {
	backend, mr := setupTestRedis(t)
	ctx := context.Background()

	run := &Run{
		RunID:     "run-2",
		State:     "failed",
		Error:     "column \"Due\" not found",
		ErrorKind: "configuration",
		StartedAt: started,
	}
	if err := backend.Store(ctx, run); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	got, err := backend.Get(ctx, "run-2")
	if err != nil || got == nil {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if !got.Failed() || got.ErrorKind != "configuration" {
		t.Errorf("unexpected run %+v", got)
	}
	if got.TriggerID != "" {
		t.Errorf("manual run should have no trigger, got %q", got.TriggerID)
	}
	if ttl := mr.TTL("test:run:run-2"); ttl != 24*time.Hour {
		t.Errorf("failure TTL = %v, want 24h", ttl)
	}
}

func TestRedisBackend_GetMissing(t *testing.T) {
	backend, _ := setupTestRedis(t)

	got, err := backend.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing run, got %+v", got)
	}
}

func TestRedisBackend_StoreRequiresID(t *testing.T) {
	backend, _ := setupTestRedis(t)

	if err := backend.Store(context.Background(), &Run{State: "done"}); err == nil {
		t.Error("expected error for empty run ID")
	}
}

func TestRedisBackend_RecentNewestFirst(t *testing.T) {
	backend, _ := setupTestRedis(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		run := &Run{RunID: fmt.Sprintf("run-%d", i), State: "done", StartedAt: started}
		if err := backend.Store(ctx, run); err != nil {
			t.Fatalf("Store() error: %v", err)
		}
	}

	runs, err := backend.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-3" || runs[1].RunID != "run-2" {
		t.Errorf("unexpected order %s, %s", runs[0].RunID, runs[1].RunID)
	}

	if runs, _ := backend.Recent(ctx, 0); len(runs) != 0 {
		t.Errorf("Recent(0) returned %d runs", len(runs))
	}
}

func TestRedisBackend_RecentPrunesExpired(t *testing.T) {
	backend, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := backend.Store(ctx, &Run{RunID: "old", State: "done", StartedAt: started}); err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	if err := backend.Store(ctx, &Run{RunID: "new", State: "done", StartedAt: started}); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	runs, err := backend.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "new" {
		t.Fatalf("expected only the live run, got %d", len(runs))
	}

	ids, err := mr.List("test:runs")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "new" {
		t.Errorf("index not pruned: %v", ids)
	}
}

func TestRedisBackend_IndexTrimmed(t *testing.T) {
	backend, mr := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < MaxRecent+5; i++ {
		if err := backend.Store(ctx, &Run{RunID: fmt.Sprintf("run-%d", i), State: "done", StartedAt: started}); err != nil {
			t.Fatalf("Store() error: %v", err)
		}
	}

	ids, err := mr.List("test:runs")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(ids) != MaxRecent {
		t.Errorf("index length = %d, want %d", len(ids), MaxRecent)
	}
}
