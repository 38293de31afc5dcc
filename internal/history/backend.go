// Package history records finished evaluation runs so operators can see
// what the daemon did while nobody was watching.
package history

import (
	"context"
	"time"
)

// Run is the stored summary of one evaluation
type Run struct {
	RunID string
	// TriggerID is empty for runs started by hand
	TriggerID string
	State     string
	Due       int
	Overdue   int
	Error     string
	ErrorKind string
	StartedAt time.Time
	Duration  time.Duration
}

// Failed reports whether the run ended in an error
func (r *Run) Failed() bool {
	return r.Error != ""
}

// Backend defines the interface for storing and retrieving run records
type Backend interface {
	// Store saves a run record
	Store(ctx context.Context, run *Run) error

	// Get retrieves a run by ID
	// Returns nil if the run doesn't exist or has expired
	Get(ctx context.Context, runID string) (*Run, error)

	// Recent returns up to n runs, newest first
	Recent(ctx context.Context, n int) ([]*Run, error)
}
