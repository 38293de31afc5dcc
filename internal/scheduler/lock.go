package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Lock is a Redis lock guarding one trigger run. It keeps two runner
// processes from firing the same trigger twice.
type Lock struct {
	client redis.Scripter
	key    string
	token  string
	ttl    time.Duration
}

// AcquireLock tries to take the lock at key. It returns nil without error
// when another holder has it.
func AcquireLock(ctx context.Context, client redis.UniversalClient, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.New().String()

	acquired, err := client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return nil, nil
	}

	return &Lock{
		client: client,
		key:    key,
		token:  token,
		ttl:    ttl,
	}, nil
}

// Release drops the lock if we still own it. Releasing twice, or after the
// TTL handed it to someone else, is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}

// Key returns the Redis key for this lock
func (l *Lock) Key() string {
	return l.key
}

// Token returns the lock token
func (l *Lock) Token() string {
	return l.token
}

// TTL returns the lock time-to-live
func (l *Lock) TTL() time.Duration {
	return l.ttl
}
