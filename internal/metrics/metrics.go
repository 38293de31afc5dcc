// Package metrics keeps in-memory counters for evaluation runs.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the global metrics collector instance
var (
	globalCollector *Collector
	once            sync.Once
)

// Outcome is how an evaluation run ended
type Outcome string

const (
	OutcomeSent          Outcome = "sent"
	OutcomeNothingToSend Outcome = "nothing_to_send"
	OutcomeFailed        Outcome = "failed"
)

// Collector tracks evaluation metrics in memory
type Collector struct {
	// Counters (atomic for thread-safety)
	runsStarted   atomic.Int64
	runsCompleted atomic.Int64
	runsFailed    atomic.Int64

	// Breakdown and item totals (protected by mutex)
	mu              sync.RWMutex
	runsByOutcome   map[Outcome]int64
	failuresByKind  map[string]int64
	itemsDue        int64
	itemsOverdue    int64
	rowsArchived    int64
	rowsSkipped     int64
	totalDuration   time.Duration
	finishedRuns    int64
	lastRun         time.Time
	lastOutcome     Outcome
	startTime       time.Time
}

// Metrics represents a snapshot of evaluation metrics
type Metrics struct {
	RunsStarted    int64             `json:"runs_started"`
	RunsCompleted  int64             `json:"runs_completed"`
	RunsFailed     int64             `json:"runs_failed"`
	RunsByOutcome  map[Outcome]int64 `json:"runs_by_outcome"`
	FailuresByKind map[string]int64  `json:"failures_by_kind"`
	ItemsDue       int64             `json:"items_due"`
	ItemsOverdue   int64             `json:"items_overdue"`
	RowsArchived   int64             `json:"rows_archived"`
	RowsSkipped    int64             `json:"rows_skipped"`
	AvgRunDuration time.Duration     `json:"avg_run_duration"`
	ErrorRate      float64           `json:"error_rate"`
	LastRun        time.Time         `json:"last_run"`
	LastOutcome    Outcome           `json:"last_outcome"`
	Uptime         time.Duration     `json:"uptime"`
}

// Default returns the global metrics collector instance
func Default() *Collector {
	once.Do(func() {
		globalCollector = NewCollector()
	})
	return globalCollector
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		runsByOutcome:  make(map[Outcome]int64),
		failuresByKind: make(map[string]int64),
		startTime:      time.Now(),
	}
}

// RecordRunStarted counts a run entering evaluation
func (c *Collector) RecordRunStarted() {
	c.runsStarted.Add(1)
}

// RecordScan adds one scan's classification totals
func (c *Collector) RecordScan(due, overdue, archived, skipped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.itemsDue += int64(due)
	c.itemsOverdue += int64(overdue)
	c.rowsArchived += int64(archived)
	c.rowsSkipped += int64(skipped)
}

// RecordRunCompleted records a run that ended without error
func (c *Collector) RecordRunCompleted(outcome Outcome, duration time.Duration) {
	c.runsCompleted.Add(1)
	c.finish(outcome, duration)
}

// RecordRunFailed records a failed run and the kind of its error
func (c *Collector) RecordRunFailed(kind string, duration time.Duration) {
	c.runsFailed.Add(1)

	c.mu.Lock()
	if kind == "" {
		kind = "unknown"
	}
	c.failuresByKind[kind]++
	c.mu.Unlock()

	c.finish(OutcomeFailed, duration)
}

func (c *Collector) finish(outcome Outcome, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runsByOutcome[outcome]++
	c.totalDuration += duration
	c.finishedRuns++
	c.lastRun = time.Now()
	c.lastOutcome = outcome
}

// GetMetrics returns a snapshot of current metrics
func (c *Collector) GetMetrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	runsByOutcome := make(map[Outcome]int64, len(c.runsByOutcome))
	for k, v := range c.runsByOutcome {
		runsByOutcome[k] = v
	}

	failuresByKind := make(map[string]int64, len(c.failuresByKind))
	for k, v := range c.failuresByKind {
		failuresByKind[k] = v
	}

	var avgDuration time.Duration
	var errorRate float64
	if c.finishedRuns > 0 {
		avgDuration = c.totalDuration / time.Duration(c.finishedRuns)
		errorRate = float64(c.runsByOutcome[OutcomeFailed]) / float64(c.finishedRuns) * 100
	}

	return Metrics{
		RunsStarted:    c.runsStarted.Load(),
		RunsCompleted:  c.runsCompleted.Load(),
		RunsFailed:     c.runsFailed.Load(),
		RunsByOutcome:  runsByOutcome,
		FailuresByKind: failuresByKind,
		ItemsDue:       c.itemsDue,
		ItemsOverdue:   c.itemsOverdue,
		RowsArchived:   c.rowsArchived,
		RowsSkipped:    c.rowsSkipped,
		AvgRunDuration: avgDuration,
		ErrorRate:      errorRate,
		LastRun:        c.lastRun,
		LastOutcome:    c.lastOutcome,
		Uptime:         time.Since(c.startTime),
	}
}

// Reset clears all metrics (useful for testing)
func (c *Collector) Reset() {
	c.runsStarted.Store(0)
	c.runsCompleted.Store(0)
	c.runsFailed.Store(0)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.runsByOutcome = make(map[Outcome]int64)
	c.failuresByKind = make(map[string]int64)
	c.itemsDue = 0
	c.itemsOverdue = 0
	c.rowsArchived = 0
	c.rowsSkipped = 0
	c.totalDuration = 0
	c.finishedRuns = 0
	c.lastRun = time.Time{}
	c.lastOutcome = ""
	c.startTime = time.Now()
}

// GetMetrics returns metrics from the global collector
func GetMetrics() Metrics {
	return Default().GetMetrics()
}

// ResetMetrics resets the global collector
func ResetMetrics() {
	Default().Reset()
}
