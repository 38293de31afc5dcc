// Package scheduler turns the declarative weekday × hour schedule into
// stored recurring triggers and fires them.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/muaviaUsmani/maintreminder/internal/serialization"
)

// Trigger is one recurring weekly registration for an entry point
type Trigger struct {
	ID         string
	EntryPoint string
	Weekday    time.Weekday
	// Hour of day, 0-23, in the runner's timezone
	Hour      int
	CreatedAt time.Time
}

// Spec returns the trigger's cron expression (minute hour dom month dow)
func (t Trigger) Spec() string {
	return fmt.Sprintf("0 %d * * %d", t.Hour, int(t.Weekday))
}

// String implements fmt.Stringer
func (t Trigger) String() string {
	return fmt.Sprintf("%s@%s %02d:00", t.EntryPoint, t.Weekday, t.Hour)
}

// TriggerState is the runtime state of a trigger kept by the runner
type TriggerState struct {
	ID          string
	LastRun     time.Time
	NextRun     time.Time
	RunCount    int64
	LastError   string
	LastSuccess time.Time
}

// cronParser accepts standard 5-field expressions
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun returns the first fire time of t strictly after after, evaluated in loc
func NextRun(t Trigger, after time.Time, loc *time.Location) (time.Time, error) {
	sched, err := cronParser.Parse(t.Spec())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse cron expression: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return sched.Next(after.In(loc)), nil
}

// ValidateHour checks that h is an hour of day
func ValidateHour(h int) error {
	if h < 0 || h > 23 {
		return fmt.Errorf("hour %d out of range 0-23", h)
	}
	return nil
}

func validateWeekday(d time.Weekday) error {
	if d < time.Sunday || d > time.Saturday {
		return fmt.Errorf("invalid weekday %d", int(d))
	}
	return nil
}

// toRecord flattens t for storage
func toRecord(t Trigger) serialization.Record {
	return serialization.Record{
		"id":          t.ID,
		"entry_point": t.EntryPoint,
		"weekday":     int(t.Weekday),
		"hour":        t.Hour,
		"created_at":  t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// fromRecord rebuilds a trigger from storage
func fromRecord(rec serialization.Record) (Trigger, error) {
	weekday, err := rec.Int("weekday")
	if err != nil {
		return Trigger{}, err
	}
	hour, err := rec.Int("hour")
	if err != nil {
		return Trigger{}, err
	}
	created, err := rec.Time("created_at")
	if err != nil {
		return Trigger{}, err
	}

	t := Trigger{
		ID:         rec.String("id"),
		EntryPoint: rec.String("entry_point"),
		Weekday:    time.Weekday(weekday),
		Hour:       hour,
		CreatedAt:  created,
	}
	if t.ID == "" {
		return Trigger{}, fmt.Errorf("trigger record has no id")
	}
	if err := validateWeekday(t.Weekday); err != nil {
		return Trigger{}, err
	}
	if err := ValidateHour(t.Hour); err != nil {
		return Trigger{}, err
	}
	return t, nil
}
