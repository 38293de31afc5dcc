// Package scanner walks the maintenance log and buckets each live task as
// due or overdue.
package scanner

import (
	"fmt"
	"time"

	"github.com/muaviaUsmani/maintreminder/internal/columns"
	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
	"github.com/muaviaUsmani/maintreminder/internal/item"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
)

// DefaultEmptyRowLimit is how many consecutive rows without a task or due
// date end the scan. Logs are usually pre-sized well past their data.
const DefaultEmptyRowLimit = 4

// Columns holds the header hints used to locate each field
type Columns struct {
	Task     string
	DueDate  string
	Archived string
}

// Options controls a scan
type Options struct {
	Columns       Columns
	Thresholds    item.Thresholds
	EmptyRowLimit int
	// Now is the evaluation instant; its calendar day is "today"
	Now time.Time
	// Location interprets textual dates; defaults to Now's location
	Location *time.Location
}

// Result is the partitioned outcome of one scan. Due and Overdue are
// disjoint and keep source row order.
type Result struct {
	Due     []*item.Item
	Overdue []*item.Item

	// Scanned counts populated rows that reached classification
	Scanned int
	// OnSchedule counts classified rows that needed no action
	OnSchedule int
	// Archived counts rows skipped by the archive flag
	Archived int
	// Skipped counts populated rows whose due date could not be read
	Skipped int
	// StoppedAt is the zero-based data row index that ended the scan on an
	// empty run, or -1 when every row was visited
	StoppedAt int

	Warnings []string
}

// Count returns the number of actionable items
func (r *Result) Count() int {
	return len(r.Due) + len(r.Overdue)
}

// Scanner classifies log rows
type Scanner struct {
	log logger.Logger
}

// New creates a scanner that reports diagnostics to log
func New(log logger.Logger) *Scanner {
	if log == nil {
		log = &logger.NoOpLogger{}
	}
	return &Scanner{log: log.WithComponent(logger.ComponentScanner)}
}

// Scan resolves the columns once, then classifies each row in order
func (s *Scanner) Scan(header []any, rows [][]any, opts Options) (*Result, error) {
	taskCol, ok := columns.Find(header, opts.Columns.Task)
	if !ok {
		return nil, apperrors.Configurationf("resolve columns", "task column %q not found in header %v", opts.Columns.Task, header)
	}
	dueCol, ok := columns.Find(header, opts.Columns.DueDate)
	if !ok {
		return nil, apperrors.Configurationf("resolve columns", "due date column %q not found in header %v", opts.Columns.DueDate, header)
	}

	result := &Result{StoppedAt: -1}

	archivedCol, hasArchived := columns.Find(header, opts.Columns.Archived)
	if !hasArchived {
		msg := fmt.Sprintf("archived column %q not found; archive filtering is disabled", opts.Columns.Archived)
		result.Warnings = append(result.Warnings, msg)
		s.log.Warn("Archived column not found, archive filtering disabled", "label", opts.Columns.Archived)
	}

	limit := opts.EmptyRowLimit
	if limit <= 0 {
		limit = DefaultEmptyRowLimit
	}
	loc := opts.Location
	if loc == nil {
		loc = opts.Now.Location()
	}

	s.log.Debug("Columns resolved",
		"task_col", taskCol,
		"due_col", dueCol,
		"archived_col", archivedCol,
		"rows", len(rows))

	emptyRun := 0
	for i, row := range rows {
		taskCell := cellAt(row, taskCol)
		dueCell := cellAt(row, dueCol)

		if isBlank(taskCell) || isBlank(dueCell) {
			emptyRun++
			if emptyRun >= limit {
				result.StoppedAt = i
				s.log.Debug("Empty row run reached, stopping scan", "row", i, "limit", limit)
				break
			}
			continue
		}

		if hasArchived && isTruthy(cellAt(row, archivedCol)) {
			result.Archived++
			continue
		}
		emptyRun = 0

		description := cellText(taskCell)
		dueDate, err := parseDate(dueCell, loc)
		if err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d (%s): %v", i+1, description, err))
			s.log.Warn("Skipping row with unreadable due date", "row", i+1, "task", description, "error", err)
			continue
		}

		it, err := item.New(description, dueDate, opts.Thresholds, opts.Now.In(loc))
		if err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Scanned++

		switch it.Status() {
		case item.StatusOverdue:
			result.Overdue = append(result.Overdue, it)
		case item.StatusDueSoon:
			result.Due = append(result.Due, it)
		default:
			result.OnSchedule++
		}
	}

	s.log.Info("Scan complete",
		"scanned", result.Scanned,
		"due", len(result.Due),
		"overdue", len(result.Overdue),
		"archived", result.Archived,
		"skipped", result.Skipped)

	return result, nil
}
