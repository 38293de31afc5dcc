package source

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a rectangular A1-notation window, zero-based and inclusive.
// EndRow is -1 when the range has no row bound ("A1:E").
type Range struct {
	StartCol, StartRow int
	EndCol, EndRow     int
}

// ParseRange parses "A1:E200", "B2:D" or a single cell such as "A1"
func ParseRange(s string) (Range, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Range{}, fmt.Errorf("range cannot be empty")
	}

	startRef, endRef, hasEnd := strings.Cut(s, ":")
	startCol, startRow, ok := parseCell(startRef)
	if !ok || startRow < 0 {
		return Range{}, fmt.Errorf("invalid range start %q", startRef)
	}

	if !hasEnd {
		return Range{StartCol: startCol, StartRow: startRow, EndCol: startCol, EndRow: startRow}, nil
	}

	endCol, endRow, ok := parseCell(endRef)
	if !ok {
		return Range{}, fmt.Errorf("invalid range end %q", endRef)
	}
	if endCol < startCol || (endRow >= 0 && endRow < startRow) {
		return Range{}, fmt.Errorf("range %q ends before it starts", s)
	}

	return Range{StartCol: startCol, StartRow: startRow, EndCol: endCol, EndRow: endRow}, nil
}

// parseCell splits "AB12" into a zero-based column and row. The row is -1
// when omitted.
func parseCell(ref string) (col, row int, ok bool) {
	i := 0
	col = 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i == 0 || i > 3 {
		return 0, 0, false
	}

	if i == len(ref) {
		return col - 1, -1, true
	}

	n, err := strconv.Atoi(ref[i:])
	if err != nil || n < 1 {
		return 0, 0, false
	}
	return col - 1, n - 1, true
}

// Width returns the number of columns in the range
func (r Range) Width() int {
	return r.EndCol - r.StartCol + 1
}

// Apply cuts the range out of a grid and pads every row to the range
// width with nil cells
func (r Range) Apply(grid [][]string) [][]any {
	if r.StartRow >= len(grid) {
		return nil
	}

	last := len(grid) - 1
	if r.EndRow >= 0 && r.EndRow < last {
		last = r.EndRow
	}

	out := make([][]any, 0, last-r.StartRow+1)
	for _, src := range grid[r.StartRow : last+1] {
		row := make([]any, r.Width())
		for c := range row {
			if idx := r.StartCol + c; idx < len(src) {
				row[c] = src[idx]
			}
		}
		out = append(out, row)
	}
	return out
}

// String renders the range back to A1 notation
func (r Range) String() string {
	end := columnName(r.EndCol)
	if r.EndRow >= 0 {
		end += strconv.Itoa(r.EndRow + 1)
	}
	return fmt.Sprintf("%s%d:%s", columnName(r.StartCol), r.StartRow+1, end)
}

func columnName(col int) string {
	name := ""
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}
