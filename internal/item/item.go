// Package item models a single maintenance task and its due-date
// classification.
package item

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/muaviaUsmani/maintreminder/internal/datemath"
	"github.com/muaviaUsmani/maintreminder/internal/textfmt"
)

// Status is the three-way classification of a task against its thresholds
type Status string

const (
	// StatusOnSchedule means the task is not yet within the due window
	StatusOnSchedule Status = "on_schedule"
	// StatusDueSoon means the task falls inside the due window
	StatusDueSoon Status = "due"
	// StatusOverdue means the task is at least the overdue threshold past its date
	StatusOverdue Status = "overdue"
)

// Thresholds controls classification, both expressed in days
type Thresholds struct {
	// DueDays flags tasks due within this many days
	DueDays int
	// OverdueDays flags tasks at least this many days past due
	OverdueDays int
}

// DefaultThresholds returns the stock due/overdue windows
func DefaultThresholds() Thresholds {
	return Thresholds{DueDays: 7, OverdueDays: 14}
}

// Validate checks that thresholds are non-negative
func (t Thresholds) Validate() error {
	if t.DueDays < 0 {
		return fmt.Errorf("due threshold cannot be negative: %d", t.DueDays)
	}
	if t.OverdueDays < 0 {
		return fmt.Errorf("overdue threshold cannot be negative: %d", t.OverdueDays)
	}
	return nil
}

// Labels holds the templates used to describe a due date. {days} is
// replaced with the absolute day offset.
type Labels struct {
	Today  string
	Future string
	Past   string
}

// DefaultLabels returns the stock English labels
func DefaultLabels() Labels {
	return Labels{
		Today:  "due today",
		Future: "due in {days} days",
		Past:   "due {days} days ago",
	}
}

// Item is one task read from the maintenance log
type Item struct {
	description string
	dueDate     time.Time
	today       time.Time
	thresholds  Thresholds
}

// New creates an item evaluated against the calendar day of now
func New(description string, dueDate time.Time, thresholds Thresholds, now time.Time) (*Item, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("item description cannot be empty")
	}
	if dueDate.IsZero() {
		return nil, fmt.Errorf("item %q has no due date", description)
	}

	return &Item{
		description: description,
		dueDate:     datemath.StartOfDay(dueDate),
		today:       datemath.StartOfDay(now),
		thresholds:  thresholds,
	}, nil
}

// Description returns the task text
func (i *Item) Description() string { return i.description }

// DueDate returns the due date at midnight
func (i *Item) DueDate() time.Time { return i.dueDate }

// Today returns the evaluation date captured at construction
func (i *Item) Today() time.Time { return i.today }

// DaysTilDue returns days until the due date; negative once it has passed
func (i *Item) DaysTilDue() int {
	return datemath.DaysBetween(i.today, i.dueDate)
}

// IsOverdue reports whether the task is at least OverdueDays past due
func (i *Item) IsOverdue() bool {
	return i.DaysTilDue() <= -i.thresholds.OverdueDays
}

// IsDue reports whether the task is within DueDays of its date.
// Overdue tasks are also due; use Status for a disjoint classification.
func (i *Item) IsDue() bool {
	return i.DaysTilDue() <= i.thresholds.DueDays
}

// Status classifies the task. Overdue takes precedence over due.
func (i *Item) Status() Status {
	return Classify(i.DaysTilDue(), i.thresholds)
}

// Classify maps a day offset onto a status
func Classify(daysTilDue int, t Thresholds) Status {
	switch {
	case daysTilDue <= -t.OverdueDays:
		return StatusOverdue
	case daysTilDue <= t.DueDays:
		return StatusDueSoon
	default:
		return StatusOnSchedule
	}
}

// DueLabel renders the day offset using the given label templates
func (i *Item) DueLabel(labels Labels) string {
	days := i.DaysTilDue()

	tmpl := labels.Today
	switch {
	case days > 0:
		tmpl = labels.Future
	case days < 0:
		tmpl = labels.Past
		days = -days
	}

	return textfmt.Format(tmpl, textfmt.Vars{"days": strconv.Itoa(days)})
}

// String implements fmt.Stringer
func (i *Item) String() string {
	return fmt.Sprintf("%s (%s)", i.description, i.dueDate.Format("2006-01-02"))
}
