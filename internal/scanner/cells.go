package scanner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order for textual due dates
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// serialEpoch is day zero of spreadsheet serial dates
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// cellAt returns the cell at idx, or nil when the row is too short
func cellAt(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// isBlank reports whether a cell carries no value
func isBlank(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(c) == ""
	case time.Time:
		return c.IsZero()
	default:
		return false
	}
}

// cellText renders a cell as trimmed text
func cellText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}

// isTruthy decides whether an archived cell marks the row as archived
func isTruthy(v any) bool {
	switch c := v.(type) {
	case nil:
		return false
	case bool:
		return c
	case int:
		return c != 0
	case int64:
		return c != 0
	case float64:
		return c != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(c))
		switch s {
		case "yes", "y", "x":
			return true
		}
		b, err := strconv.ParseBool(s)
		return err == nil && b
	default:
		return false
	}
}

// parseDate converts a due-date cell into a time in loc
func parseDate(v any, loc *time.Location) (time.Time, error) {
	switch c := v.(type) {
	case time.Time:
		// the cell's own calendar date, whatever zone it was read in
		y, m, d := c.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	case float64:
		return fromSerial(c, loc)
	case int:
		return fromSerial(float64(c), loc)
	case int64:
		return fromSerial(float64(c), loc)
	case string:
		s := strings.TrimSpace(c)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, nil
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSerial(f, loc)
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported date cell type %T", v)
	}
}

// fromSerial converts a spreadsheet serial day number
func fromSerial(serial float64, loc *time.Location) (time.Time, error) {
	if serial < 1 || serial > 2958465 || math.IsNaN(serial) {
		return time.Time{}, fmt.Errorf("serial date %v out of range", serial)
	}
	d := serialEpoch.AddDate(0, 0, int(serial))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), nil
}
