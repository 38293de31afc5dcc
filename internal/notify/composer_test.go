package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/muaviaUsmani/maintreminder/internal/item"
)

var now = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

func newItem(t *testing.T, description string, offset int) *item.Item {
	t.Helper()
	it, err := item.New(description, now.AddDate(0, 0, offset), item.DefaultThresholds(), now)
	if err != nil {
		t.Fatalf("item.New() error: %v", err)
	}
	return it
}

func newComposer() *Composer {
	return NewComposer(DefaultTemplates(), item.DefaultLabels())
}

func TestBuildSection_Empty(t *testing.T) {
	if got := newComposer().BuildSection(nil, true); got != "" {
		t.Errorf("BuildSection(nil) = %q, want empty", got)
	}
}

func TestBuildSection_Lines(t *testing.T) {
	items := []*item.Item{
		newItem(t, "Replace filter", 3),
		newItem(t, "Oil hinges", 0),
	}

	got := newComposer().BuildSection(items, false)
	want := "The following tasks are DUE:\n" +
		"- Replace filter - due in 3 days\n" +
		"- Oil hinges - due today\n" +
		"------------------------------\n"

	if got != want {
		t.Errorf("BuildSection() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildSection_OverdueHeader(t *testing.T) {
	got := newComposer().BuildSection([]*item.Item{newItem(t, "Clean gutters", -20)}, true)
	if !strings.HasPrefix(got, "The following tasks are OVERDUE:\n") {
		t.Errorf("unexpected header in %q", got)
	}
	if !strings.Contains(got, "- Clean gutters - due 20 days ago\n") {
		t.Errorf("missing item line in %q", got)
	}
}

func TestCompose_NothingToSend(t *testing.T) {
	msg, ok := newComposer().Compose(nil, []*item.Item{}, "https://example.com")
	if ok || msg != nil {
		t.Errorf("Compose([], []) = %v, %v; want nothing to send", msg, ok)
	}
}

func TestCompose_BothSections(t *testing.T) {
	due := []*item.Item{newItem(t, "Replace filter", 3)}
	overdue := []*item.Item{newItem(t, "Clean gutters", -20)}

	msg, ok := newComposer().Compose(due, overdue, "https://sheets.example/log")
	if !ok {
		t.Fatal("expected a message")
	}

	if msg.Subject != "Home maintenance: 2 task(s) need attention" {
		t.Errorf("subject = %q", msg.Subject)
	}

	want := "The following tasks are DUE:\n" +
		"- Replace filter - due in 3 days\n" +
		"------------------------------\n" +
		"\n" +
		"The following tasks are OVERDUE:\n" +
		"- Clean gutters - due 20 days ago\n" +
		"------------------------------\n" +
		"Open the maintenance log: https://sheets.example/log"

	if msg.Body != want {
		t.Errorf("body =\n%s\nwant\n%s", msg.Body, want)
	}
}

func TestCompose_SingleSectionHasNoBlankLine(t *testing.T) {
	tests := []struct {
		name    string
		due     []*item.Item
		overdue []*item.Item
	}{
		{"due only", []*item.Item{newItem(t, "Replace filter", 3)}, nil},
		{"overdue only", nil, []*item.Item{newItem(t, "Clean gutters", -20)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := newComposer().Compose(tt.due, tt.overdue, "u")
			if !ok {
				t.Fatal("expected a message")
			}
			if strings.Contains(msg.Body, "\n\n") {
				t.Errorf("unexpected blank line in %q", msg.Body)
			}
			if !strings.Contains(msg.Subject, "1") {
				t.Errorf("subject %q lacks count", msg.Subject)
			}
		})
	}
}

func TestCompose_Deterministic(t *testing.T) {
	due := []*item.Item{newItem(t, "Replace filter", 3)}
	c := newComposer()

	first, _ := c.Compose(due, nil, "u")
	second, _ := c.Compose(due, nil, "u")
	if *first != *second {
		t.Error("compose output differs between identical calls")
	}
}

func TestCompose_CustomTemplates(t *testing.T) {
	c := NewComposer(Templates{
		Subject:       "[{count}] chores",
		SectionHeader: "== {status} ==",
		Separator:     "--",
		Footer:        "see {url} ({count})",
	}, item.Labels{Today: "now", Future: "+{days}d", Past: "-{days}d"})

	msg, ok := c.Compose(nil, []*item.Item{newItem(t, "Clean gutters", -15)}, "x")
	if !ok {
		t.Fatal("expected a message")
	}

	if msg.Subject != "[1] chores" {
		t.Errorf("subject = %q", msg.Subject)
	}
	want := "== OVERDUE ==\n- Clean gutters - -15d\n--\nsee x ({count})"
	if msg.Body != want {
		t.Errorf("body = %q, want %q", msg.Body, want)
	}
}
