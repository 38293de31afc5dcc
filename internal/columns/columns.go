// Package columns locates named fields within a header row.
package columns

import "strings"

// NotFound is the index returned when no header cell matches
const NotFound = -1

// Find returns the position of the first header cell containing label,
// compared case-insensitively. Cells that are not strings never match.
func Find(header []any, label string) (int, bool) {
	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" {
		return NotFound, false
	}

	for i, cell := range header {
		text, ok := cell.(string)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			return i, true
		}
	}

	return NotFound, false
}
