// Package datemath provides day-granularity date arithmetic.
package datemath

import (
	"fmt"
	"strings"
	"time"
)

// Day is the length of one calendar day
const Day = 24 * time.Hour

// StartOfDay returns midnight of t's calendar date in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole days from earlier to later.
// Negative when later is before earlier. Both values are reduced to their
// calendar date first, so DST transitions and time-of-day never shift the
// result.
func DaysBetween(earlier, later time.Time) int {
	diff := calendarDate(later).Sub(calendarDate(earlier))
	// Duration division truncates toward zero
	return int(diff / Day)
}

// calendarDate re-anchors t's Y/M/D at UTC midnight
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts full or three-letter day names in any case
// ("SATURDAY", "Sat", "saturday")
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if day, ok := weekdayNames[name]; ok {
		return day, nil
	}
	if len(name) == 3 {
		for full, day := range weekdayNames {
			if strings.HasPrefix(full, name) {
				return day, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// ParseWeekdays parses every entry, de-duplicating while keeping order
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	seen := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		day, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	return days, nil
}
