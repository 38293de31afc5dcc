package textfmt

import (
	"reflect"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		vars Vars
		want string
	}{
		{"no tokens", "plain text", Vars{"count": "2"}, "plain text"},
		{"single token", "{count} tasks", Vars{"count": "2"}, "2 tasks"},
		{"repeated token", "{days}/{days}", Vars{"days": "3"}, "3/3"},
		{"unknown token kept", "{owner} has {count}", Vars{"count": "1"}, "{owner} has 1"},
		{"shared prefix", "{day} {days}", Vars{"day": "Mon", "days": "5"}, "Mon 5"},
		{"value not rescanned", "{status}", Vars{"status": "{count}", "count": "9"}, "{count}"},
		{"unbalanced brace", "open { brace {count}", Vars{"count": "1"}, "open { brace 1"},
		{"trailing open brace", "tail {", Vars{}, "tail {"},
		{"nested braces", "{{count}}", Vars{"count": "4"}, "{4}"},
		{"empty name", "{}", Vars{"": "x"}, "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.tmpl, tt.vars); got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("{url} and {count} then {count} and {bad name}")
	want := []string{"count", "url"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
}
