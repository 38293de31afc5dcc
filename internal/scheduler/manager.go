package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/muaviaUsmani/maintreminder/internal/logger"
)

// Manager applies a declarative schedule to the triggers of one entry point
type Manager struct {
	store      TriggerStore
	entryPoint string
	log        logger.Logger
}

// NewManager creates a manager for entryPoint
func NewManager(store TriggerStore, entryPoint string, log logger.Logger) (*Manager, error) {
	if err := ValidateEntryPoint(entryPoint); err != nil {
		return nil, err
	}
	if log == nil {
		log = &logger.NoOpLogger{}
	}
	return &Manager{
		store:      store,
		entryPoint: entryPoint,
		log:        log.WithComponent(logger.ComponentScheduler),
	}, nil
}

// EntryPoint returns the entry point this manager owns
func (m *Manager) EntryPoint() string {
	return m.entryPoint
}

// Triggers lists the entry point's current triggers
func (m *Manager) Triggers(ctx context.Context) ([]Trigger, error) {
	return m.store.List(ctx, m.entryPoint)
}

// Apply replaces every trigger owned by the entry point with one trigger
// per (day, hour) pair. Empty days or hours disable the schedule. Inputs
// are validated before anything is removed; triggers of other entry points
// are never touched.
func (m *Manager) Apply(ctx context.Context, days []time.Weekday, hours []int) ([]Trigger, error) {
	for _, d := range days {
		if err := validateWeekday(d); err != nil {
			return nil, err
		}
	}
	for _, h := range hours {
		if err := ValidateHour(h); err != nil {
			return nil, err
		}
	}

	existing, err := m.store.List(ctx, m.entryPoint)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing triggers: %w", err)
	}

	days = uniqueWeekdays(days)
	hours = uniqueHours(hours)

	// New triggers go in before old ones come out; a failed create leaves
	// the previous schedule as it was
	created := make([]Trigger, 0, len(days)*len(hours))
	for _, d := range days {
		for _, h := range hours {
			t, err := m.store.Create(ctx, m.entryPoint, d, h)
			if err != nil {
				m.rollback(ctx, created)
				return nil, fmt.Errorf("failed to create trigger %s %02d:00: %w", d, h, err)
			}
			created = append(created, t)
		}
	}

	for _, t := range existing {
		if err := m.store.Delete(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to remove trigger %s: %w", t.ID, err)
		}
	}

	m.log.InfoContext(ctx, "Schedule applied",
		"entry_point", m.entryPoint,
		"removed", len(existing),
		"created", len(created))

	if len(created) == 0 {
		m.log.WarnContext(ctx, "Schedule disabled, no triggers registered", "entry_point", m.entryPoint)
	}

	return created, nil
}

// rollback removes triggers created by a replace that did not finish
func (m *Manager) rollback(ctx context.Context, created []Trigger) {
	for _, t := range created {
		if err := m.store.Delete(ctx, t); err != nil {
			m.log.ErrorContext(ctx, "Failed to roll back trigger", "trigger_id", t.ID, "error", err)
		}
	}
}

func uniqueWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func uniqueHours(hours []int) []int {
	seen := make(map[int]bool, len(hours))
	out := make([]int, 0, len(hours))
	for _, h := range hours {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}
