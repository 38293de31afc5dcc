package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/muaviaUsmani/maintreminder/internal/datemath"
	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
)

// Invoker runs the entry point for a fired trigger
type Invoker func(ctx context.Context, t Trigger) error

// Runner is the daemon that fires stored triggers. Each tick it lists the
// entry point's triggers, checks which are due against their Redis state
// and invokes the entry point under a per-trigger lock. Missed fire times
// collapse into a single run.
type Runner struct {
	store      *RedisStore
	entryPoint string
	invoke     Invoker
	interval   time.Duration
	lockTTL    time.Duration
	loc        *time.Location
	clock      datemath.Clock
	log        logger.Logger
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithInterval sets the tick interval (default 30s)
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.interval = d }
}

// WithLockTTL sets the per-trigger lock TTL (default 10m)
func WithLockTTL(d time.Duration) RunnerOption {
	return func(r *Runner) { r.lockTTL = d }
}

// WithLocation sets the timezone trigger hours are read in (default UTC)
func WithLocation(loc *time.Location) RunnerOption {
	return func(r *Runner) { r.loc = loc }
}

// WithRunnerClock sets the runner's clock
func WithRunnerClock(clock datemath.Clock) RunnerOption {
	return func(r *Runner) { r.clock = clock }
}

// WithRunnerLogger sets the runner's logger
func WithRunnerLogger(log logger.Logger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log.WithComponent(logger.ComponentScheduler)
		}
	}
}

// NewRunner creates a runner firing entryPoint's triggers from store
func NewRunner(store *RedisStore, entryPoint string, invoke Invoker, opts ...RunnerOption) (*Runner, error) {
	if err := ValidateEntryPoint(entryPoint); err != nil {
		return nil, err
	}
	if invoke == nil {
		return nil, fmt.Errorf("runner needs an invoker")
	}

	r := &Runner{
		store:      store,
		entryPoint: entryPoint,
		invoke:     invoke,
		interval:   30 * time.Second,
		lockTTL:    10 * time.Minute,
		loc:        time.UTC,
		clock:      datemath.RealClock{},
		log:        (&logger.NoOpLogger{}).WithComponent(logger.ComponentScheduler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval <= 0 {
		return nil, fmt.Errorf("runner interval must be positive, got %v", r.interval)
	}
	return r, nil
}

// Start runs the tick loop until ctx is cancelled
func (r *Runner) Start(ctx context.Context) {
	r.log.Info("Trigger runner started",
		"entry_point", r.entryPoint,
		"interval", r.interval,
		"timezone", r.loc.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Trigger runner stopping")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick checks every trigger once and fires the due ones. It returns how
// many triggers were invoked.
func (r *Runner) Tick(ctx context.Context) int {
	now := r.clock.Now()

	triggers, err := r.store.List(ctx, r.entryPoint)
	if err != nil {
		r.log.Error("Failed to list triggers", "entry_point", r.entryPoint, "error", err)
		return 0
	}

	fired := 0
	for _, t := range triggers {
		if r.isDue(ctx, t, now) && r.execute(ctx, t, now) {
			fired++
		}
	}
	return fired
}

// isDue checks whether a trigger's next fire time has arrived. A trigger
// that never ran counts from its creation time.
func (r *Runner) isDue(ctx context.Context, t Trigger, now time.Time) bool {
	state, err := r.store.State(ctx, t.ID)
	if err != nil {
		r.log.Error("Failed to get trigger state", "trigger_id", t.ID, "error", err)
		return false
	}

	baseline := state.LastRun
	if baseline.IsZero() {
		baseline = t.CreatedAt
	}

	nextRun, err := NextRun(t, baseline, r.loc)
	if err != nil {
		r.log.Error("Failed to calculate next run", "trigger_id", t.ID, "error", err)
		return false
	}

	// 1-second buffer for tick timing
	return !now.Before(nextRun.Add(-1 * time.Second))
}

// execute fires one trigger under its lock and records the outcome. It
// reports whether the invoker ran.
func (r *Runner) execute(ctx context.Context, t Trigger, now time.Time) bool {
	lock, err := AcquireLock(ctx, r.store.client, r.store.lockKey(t.ID), r.lockTTL)
	if err != nil {
		r.log.Error("Failed to acquire trigger lock", "trigger_id", t.ID, "error", err)
		return false
	}
	if lock == nil {
		r.log.Debug("Trigger already locked by another runner", "trigger_id", t.ID)
		return false
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			r.log.Error("Failed to release trigger lock", "trigger_id", t.ID, "error", err)
		}
	}()

	runCtx := logger.WithTriggerID(ctx, t.ID)
	r.log.InfoContext(runCtx, "Trigger fired", "trigger", t.String())

	err = r.safeInvoke(runCtx, t)

	nextRun, nextErr := NextRun(t, now, r.loc)
	if nextErr != nil {
		r.log.Error("Failed to calculate next run time", "trigger_id", t.ID, "error", nextErr)
		nextRun = time.Time{}
	}

	state := &TriggerState{ID: t.ID, LastRun: now, NextRun: nextRun}
	if err != nil {
		r.log.ErrorContext(runCtx, "Triggered run failed", "trigger", t.String(), "error", err)
		state.LastError = err.Error()
	} else {
		state.LastSuccess = now
		state.RunCount = r.incrementRunCount(ctx, t.ID)
	}

	if updateErr := r.updateState(ctx, t.ID, state); updateErr != nil {
		r.log.Warn("Failed to update trigger state", "trigger_id", t.ID, "error", updateErr)
	}

	r.log.Debug("Trigger state updated",
		"trigger_id", t.ID,
		"next_run", nextRun.Format(time.RFC3339),
		"run_count", state.RunCount)

	return true
}

// safeInvoke keeps a panicking run from taking down the daemon
func (r *Runner) safeInvoke(ctx context.Context, t Trigger) (err error) {
	defer func() {
		if p := apperrors.FromPanic(recover()); p != nil {
			if pe, ok := p.(*apperrors.PanicError); ok {
				r.log.ErrorContext(ctx, "Triggered run panicked", "trigger_id", t.ID, "panic", apperrors.FormatPanicForLog(pe))
			}
			err = p
		}
	}()
	return r.invoke(ctx, t)
}

// updateState writes a trigger's runtime state. A successful run clears
// the last error.
func (r *Runner) updateState(ctx context.Context, id string, state *TriggerState) error {
	key := r.store.stateKey(id)

	fields := map[string]interface{}{
		"last_run": state.LastRun.UTC().Format(time.RFC3339),
	}
	if !state.NextRun.IsZero() {
		fields["next_run"] = state.NextRun.UTC().Format(time.RFC3339)
	}
	if !state.LastSuccess.IsZero() {
		fields["last_success"] = state.LastSuccess.UTC().Format(time.RFC3339)
	}
	if state.LastError != "" {
		fields["last_error"] = state.LastError
	}

	_, err := r.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if state.LastError == "" {
			pipe.HDel(ctx, key, "last_error")
		}
		pipe.HSet(ctx, key, fields)
		return nil
	})
	return err
}

// incrementRunCount bumps and returns the successful run count
func (r *Runner) incrementRunCount(ctx context.Context, id string) int64 {
	count, err := r.store.client.HIncrBy(ctx, r.store.stateKey(id), "run_count", 1).Result()
	if err != nil {
		r.log.Error("Failed to increment run count", "trigger_id", id, "error", err)
		return 0
	}
	return count
}

// GetState returns a trigger's runtime state
func (r *Runner) GetState(ctx context.Context, id string) (*TriggerState, error) {
	return r.store.State(ctx, id)
}
