package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flakyStore fails every Create after the first okCreates
type flakyStore struct {
	*RedisStore
	okCreates int
}

func (f *flakyStore) Create(ctx context.Context, entryPoint string, weekday time.Weekday, hour int) (Trigger, error) {
	if f.okCreates == 0 {
		return Trigger{}, errors.New("connection reset")
	}
	f.okCreates--
	return f.RedisStore.Create(ctx, entryPoint, weekday, hour)
}

func setupManager(t *testing.T, store *RedisStore, entryPoint string) *Manager {
	t.Helper()
	m, err := NewManager(store, entryPoint, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestManager_ApplyCrossProduct(t *testing.T) {
	m := setupManager(t, setupStore(t), "run-evaluation")
	ctx := context.Background()

	created, err := m.Apply(ctx, []time.Weekday{time.Saturday, time.Wednesday}, []int{7, 18})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(created) != 4 {
		t.Errorf("expected 4 triggers, got %d", len(created))
	}

	triggers, err := m.Triggers(ctx)
	if err != nil {
		t.Fatalf("Triggers failed: %v", err)
	}
	if len(triggers) != 4 {
		t.Errorf("expected 4 stored triggers, got %d", len(triggers))
	}
}

func TestManager_ApplyIsIdempotent(t *testing.T) {
	m := setupManager(t, setupStore(t), "run-evaluation")
	ctx := context.Background()

	days := []time.Weekday{time.Saturday}
	hours := []int{7, 12}

	for i := 0; i < 3; i++ {
		if _, err := m.Apply(ctx, days, hours); err != nil {
			t.Fatalf("Apply #%d failed: %v", i+1, err)
		}
	}

	triggers, err := m.Triggers(ctx)
	if err != nil {
		t.Fatalf("Triggers failed: %v", err)
	}
	if len(triggers) != 2 {
		t.Errorf("expected 2 triggers after repeated apply, got %d", len(triggers))
	}
}

func TestManager_ApplyReplaces(t *testing.T) {
	m := setupManager(t, setupStore(t), "run-evaluation")
	ctx := context.Background()

	if _, err := m.Apply(ctx, []time.Weekday{time.Saturday}, []int{7}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := m.Apply(ctx, []time.Weekday{time.Sunday}, []int{9}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	triggers, err := m.Triggers(ctx)
	if err != nil {
		t.Fatalf("Triggers failed: %v", err)
	}
	if len(triggers) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(triggers))
	}
	if triggers[0].Weekday != time.Sunday || triggers[0].Hour != 9 {
		t.Errorf("expected Sunday 09:00, got %s", triggers[0])
	}
}

func TestManager_ApplyEmptyDisables(t *testing.T) {
	m := setupManager(t, setupStore(t), "run-evaluation")
	ctx := context.Background()

	if _, err := m.Apply(ctx, []time.Weekday{time.Saturday}, []int{7}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	tests := []struct {
		name  string
		days  []time.Weekday
		hours []int
	}{
		{"no days", nil, []int{7}},
		{"no hours", []time.Weekday{time.Saturday}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := m.Apply(ctx, tt.days, tt.hours)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if len(created) != 0 {
				t.Errorf("expected no triggers, got %d", len(created))
			}
			triggers, _ := m.Triggers(ctx)
			if len(triggers) != 0 {
				t.Errorf("expected empty store, got %d", len(triggers))
			}
		})
	}
}

func TestManager_ApplyScopedToEntryPoint(t *testing.T) {
	store := setupStore(t)
	ours := setupManager(t, store, "run-evaluation")
	theirs := setupManager(t, store, "backup-sheet")
	ctx := context.Background()

	if _, err := theirs.Apply(ctx, []time.Weekday{time.Monday}, []int{3}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := ours.Apply(ctx, []time.Weekday{time.Saturday}, []int{7}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := ours.Apply(ctx, nil, nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	triggers, err := theirs.Triggers(ctx)
	if err != nil {
		t.Fatalf("Triggers failed: %v", err)
	}
	if len(triggers) != 1 || triggers[0].EntryPoint != "backup-sheet" {
		t.Errorf("unrelated entry point was modified: %v", triggers)
	}
}

func TestManager_InvalidHourLeavesScheduleUntouched(t *testing.T) {
	m := setupManager(t, setupStore(t), "run-evaluation")
	ctx := context.Background()

	if _, err := m.Apply(ctx, []time.Weekday{time.Saturday}, []int{7}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if _, err := m.Apply(ctx, []time.Weekday{time.Sunday}, []int{9, 24}); err == nil {
		t.Fatal("expected error for hour 24")
	}

	triggers, _ := m.Triggers(ctx)
	if len(triggers) != 1 || triggers[0].Weekday != time.Saturday {
		t.Errorf("previous schedule was disturbed: %v", triggers)
	}
}

func TestManager_DuplicatesCollapse(t *testing.T) {
	m := setupManager(t, setupStore(t), "run-evaluation")

	created, err := m.Apply(context.Background(), []time.Weekday{time.Saturday, time.Saturday}, []int{7, 7})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(created) != 1 {
		t.Errorf("expected duplicates to collapse, got %d triggers", len(created))
	}
}

func TestNewManager_InvalidEntryPoint(t *testing.T) {
	if _, err := NewManager(setupStore(t), "", nil); err == nil {
		t.Error("expected error for empty entry point")
	}
}

func TestManager_FailedReplaceKeepsPreviousSchedule(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := setupManager(t, store, "run-evaluation").Apply(ctx, []time.Weekday{time.Saturday}, []int{7}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	flaky, err := NewManager(&flakyStore{RedisStore: store, okCreates: 1}, "run-evaluation", nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := flaky.Apply(ctx, []time.Weekday{time.Sunday}, []int{9, 18}); err == nil {
		t.Fatal("expected Apply to fail")
	}

	triggers, err := store.List(ctx, "run-evaluation")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(triggers) != 1 {
		t.Fatalf("expected the previous trigger only, got %d", len(triggers))
	}
	if triggers[0].Weekday != time.Saturday || triggers[0].Hour != 7 {
		t.Errorf("unexpected surviving trigger %s", triggers[0])
	}
}
