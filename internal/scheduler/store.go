package scheduler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/muaviaUsmani/maintreminder/internal/datemath"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
	"github.com/muaviaUsmani/maintreminder/internal/serialization"
)

// DefaultKeyPrefix namespaces every Redis key written by the scheduler
const DefaultKeyPrefix = "maintreminder"

var (
	// entryPointPattern validates entry point names (alphanumeric, underscores, hyphens)
	entryPointPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// TriggerStore holds recurring triggers grouped by entry point
type TriggerStore interface {
	// List returns the triggers owned by entryPoint, ordered by weekday then hour
	List(ctx context.Context, entryPoint string) ([]Trigger, error)
	// Delete removes a trigger and its runtime state
	Delete(ctx context.Context, t Trigger) error
	// Create registers a new trigger
	Create(ctx context.Context, entryPoint string, weekday time.Weekday, hour int) (Trigger, error)
}

// ValidateEntryPoint checks an entry point name
func ValidateEntryPoint(name string) error {
	if name == "" {
		return fmt.Errorf("entry point cannot be empty")
	}
	if !entryPointPattern.MatchString(name) {
		return fmt.Errorf("entry point must contain only alphanumeric characters, underscores, and hyphens")
	}
	return nil
}

// RedisStore keeps one set of trigger IDs per entry point plus one encoded
// record per trigger
type RedisStore struct {
	client redis.UniversalClient
	codec  *serialization.Codec
	prefix string
	clock  datemath.Clock
	log    logger.Logger
}

// StoreOption configures a RedisStore
type StoreOption func(*RedisStore)

// WithKeyPrefix overrides DefaultKeyPrefix
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithCodec sets the record codec (default JSON)
func WithCodec(codec *serialization.Codec) StoreOption {
	return func(s *RedisStore) { s.codec = codec }
}

// WithClock sets the clock used for CreatedAt
func WithClock(clock datemath.Clock) StoreOption {
	return func(s *RedisStore) { s.clock = clock }
}

// WithLogger sets the store logger
func WithLogger(log logger.Logger) StoreOption {
	return func(s *RedisStore) {
		if log != nil {
			s.log = log.WithComponent(logger.ComponentScheduler)
		}
	}
}

// NewRedisStore creates a trigger store backed by client
func NewRedisStore(client redis.UniversalClient, opts ...StoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		codec:  serialization.NewCodec(serialization.FormatJSON),
		prefix: DefaultKeyPrefix,
		clock:  datemath.RealClock{},
		log:    (&logger.NoOpLogger{}).WithComponent(logger.ComponentScheduler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) setKey(entryPoint string) string {
	return fmt.Sprintf("%s:triggers:%s", s.prefix, entryPoint)
}

func (s *RedisStore) recordKey(id string) string {
	return fmt.Sprintf("%s:trigger:%s", s.prefix, id)
}

func (s *RedisStore) stateKey(id string) string {
	return fmt.Sprintf("%s:trigger_state:%s", s.prefix, id)
}

func (s *RedisStore) lockKey(id string) string {
	return fmt.Sprintf("%s:trigger_lock:%s", s.prefix, id)
}

// List returns the triggers owned by entryPoint. IDs whose record has
// vanished are pruned from the set.
func (s *RedisStore) List(ctx context.Context, entryPoint string) ([]Trigger, error) {
	if err := ValidateEntryPoint(entryPoint); err != nil {
		return nil, err
	}

	ids, err := s.client.SMembers(ctx, s.setKey(entryPoint)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}

	triggers := make([]Trigger, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			s.log.Warn("Pruning trigger with missing record", "entry_point", entryPoint, "trigger_id", id)
			if err := s.client.SRem(ctx, s.setKey(entryPoint), id).Err(); err != nil {
				return nil, fmt.Errorf("failed to prune trigger %s: %w", id, err)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load trigger %s: %w", id, err)
		}

		rec, err := s.codec.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode trigger %s: %w", id, err)
		}
		t, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("invalid trigger %s: %w", id, err)
		}
		triggers = append(triggers, t)
	}

	sort.Slice(triggers, func(i, j int) bool {
		a, b := triggers[i], triggers[j]
		if a.Weekday != b.Weekday {
			return a.Weekday < b.Weekday
		}
		if a.Hour != b.Hour {
			return a.Hour < b.Hour
		}
		return a.ID < b.ID
	})

	return triggers, nil
}

// Delete removes t from its entry point along with its record and state
func (s *RedisStore) Delete(ctx context.Context, t Trigger) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, s.setKey(t.EntryPoint), t.ID)
		pipe.Del(ctx, s.recordKey(t.ID), s.stateKey(t.ID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete trigger %s: %w", t.ID, err)
	}

	s.log.Debug("Trigger deleted", "trigger_id", t.ID, "trigger", t.String())
	return nil
}

// Create registers a trigger for entryPoint firing weekly at weekday/hour
func (s *RedisStore) Create(ctx context.Context, entryPoint string, weekday time.Weekday, hour int) (Trigger, error) {
	if err := ValidateEntryPoint(entryPoint); err != nil {
		return Trigger{}, err
	}
	if err := validateWeekday(weekday); err != nil {
		return Trigger{}, err
	}
	if err := ValidateHour(hour); err != nil {
		return Trigger{}, err
	}

	t := Trigger{
		ID:         uuid.New().String(),
		EntryPoint: entryPoint,
		Weekday:    weekday,
		Hour:       hour,
		CreatedAt:  s.clock.Now().UTC().Truncate(time.Second),
	}

	data, err := s.codec.Encode(toRecord(t))
	if err != nil {
		return Trigger{}, fmt.Errorf("failed to encode trigger: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(t.ID), data, 0)
		pipe.SAdd(ctx, s.setKey(entryPoint), t.ID)
		return nil
	})
	if err != nil {
		return Trigger{}, fmt.Errorf("failed to create trigger: %w", err)
	}

	s.log.Debug("Trigger created", "trigger_id", t.ID, "trigger", t.String())
	return t, nil
}

// State reads a trigger's runtime state. A trigger that never ran has a
// zero state.
func (s *RedisStore) State(ctx context.Context, id string) (*TriggerState, error) {
	result, err := s.client.HGetAll(ctx, s.stateKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get trigger state: %w", err)
	}

	state := &TriggerState{ID: id}
	if len(result) == 0 {
		return state, nil
	}

	state.LastRun = parseStateTime(result["last_run"])
	state.NextRun = parseStateTime(result["next_run"])
	state.LastSuccess = parseStateTime(result["last_success"])
	state.LastError = result["last_error"]
	if n, err := strconv.ParseInt(result["run_count"], 10, 64); err == nil {
		state.RunCount = n
	}

	return state, nil
}

func parseStateTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ TriggerStore = (*RedisStore)(nil)
