package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// MaxRecent caps the run index; older IDs are trimmed on every store
const MaxRecent = 100

// RedisBackend implements the Backend interface using Redis. Each run is a
// hash that expires on its own; an index list keeps insertion order.
type RedisBackend struct {
	client     redis.UniversalClient
	prefix     string
	successTTL time.Duration
	failureTTL time.Duration
}

// NewRedisBackend creates a new Redis-backed run history
func NewRedisBackend(client redis.UniversalClient, prefix string, successTTL, failureTTL time.Duration) *RedisBackend {
	return &RedisBackend{
		client:     client,
		prefix:     prefix,
		successTTL: successTTL,
		failureTTL: failureTTL,
	}
}

func (r *RedisBackend) runKey(runID string) string {
	return fmt.Sprintf("%s:run:%s", r.prefix, runID)
}

func (r *RedisBackend) indexKey() string {
	return r.prefix + ":runs"
}

// Store saves a run record
func (r *RedisBackend) Store(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	data := map[string]interface{}{
		"state":       run.State,
		"due":         run.Due,
		"overdue":     run.Overdue,
		"started_at":  run.StartedAt.UTC().Format(time.RFC3339),
		"duration_ms": run.Duration.Milliseconds(),
	}
	if run.TriggerID != "" {
		data["trigger_id"] = run.TriggerID
	}
	if run.Failed() {
		data["error"] = run.Error
		data["error_kind"] = run.ErrorKind
	}

	ttl := r.successTTL
	if run.Failed() {
		ttl = r.failureTTL
	}

	key := r.runKey(run.RunID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, data)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		pipe.LPush(ctx, r.indexKey(), run.RunID)
		pipe.LTrim(ctx, r.indexKey(), 0, MaxRecent-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RedisBackend) Get(ctx context.Context, runID string) (*Run, error) {
	data, err := r.client.HGetAll(ctx, r.runKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	// If no data, the run expired or never existed
	if len(data) == 0 {
		return nil, nil
	}

	run := &Run{
		RunID:     runID,
		TriggerID: data["trigger_id"],
		State:     data["state"],
		Error:     data["error"],
		ErrorKind: data["error_kind"],
	}

	if v, err := strconv.Atoi(data["due"]); err == nil {
		run.Due = v
	}
	if v, err := strconv.Atoi(data["overdue"]); err == nil {
		run.Overdue = v
	}
	if startedAt, exists := data["started_at"]; exists {
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			run.StartedAt = t
		}
	}
	if durationMs, exists := data["duration_ms"]; exists {
		if ms, err := strconv.ParseInt(durationMs, 10, 64); err == nil {
			run.Duration = time.Duration(ms) * time.Millisecond
		}
	}

	return run, nil
}

// Recent returns up to n runs, newest first. Index entries whose record has
// expired are dropped from the index.
func (r *RedisBackend) Recent(ctx context.Context, n int) ([]*Run, error) {
	if n <= 0 {
		return nil, nil
	}

	ids, err := r.client.LRange(ctx, r.indexKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*Run, 0, len(ids))
	for _, id := range ids {
		run, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if run == nil {
			if err := r.client.LRem(ctx, r.indexKey(), 0, id).Err(); err != nil {
				return nil, fmt.Errorf("failed to prune run index: %w", err)
			}
			continue
		}
		runs = append(runs, run)
	}

	return runs, nil
}
