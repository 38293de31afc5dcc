package columns

import "testing"

func TestFind(t *testing.T) {
	header := []any{"Maintenance", "Next due", "Frequency", "Archived"}

	tests := []struct {
		name   string
		header []any
		label  string
		want   int
		wantOK bool
	}{
		{"exact", header, "Maintenance", 0, true},
		{"case insensitive", header, "ARCHIVED", 3, true},
		{"substring", header, "due", 1, true},
		{"next due date header", []any{"Next Due Date"}, "due", 0, true},
		{"not found", header, "owner", NotFound, false},
		{"blank label", header, "  ", NotFound, false},
		{"first match wins", []any{"Due (est)", "Due date"}, "due", 0, true},
		{"non-string cells skipped", []any{42, nil, true, "Task due"}, "due", 3, true},
		{"empty header", nil, "due", NotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Find(tt.header, tt.label)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Find(%v, %q) = (%d, %v), want (%d, %v)", tt.header, tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
