// Package notify renders classified items into a reminder message and
// delivers it.
package notify

import (
	"strconv"
	"strings"

	"github.com/muaviaUsmani/maintreminder/internal/item"
	"github.com/muaviaUsmani/maintreminder/internal/textfmt"
)

// Section status names substituted for {status}
const (
	StatusDue     = "DUE"
	StatusOverdue = "OVERDUE"
)

// Templates holds the message templates.
// Subject takes {count}, SectionHeader takes {status}, Footer takes {url}.
type Templates struct {
	Subject       string
	SectionHeader string
	Separator     string
	Footer        string
}

// DefaultTemplates returns the stock English templates
func DefaultTemplates() Templates {
	return Templates{
		Subject:       "Home maintenance: {count} task(s) need attention",
		SectionHeader: "The following tasks are {status}:",
		Separator:     "------------------------------",
		Footer:        "Open the maintenance log: {url}",
	}
}

// Message is a composed reminder
type Message struct {
	Subject string
	Body    string
}

// Composer builds reminder messages. Output depends only on its inputs and
// templates.
type Composer struct {
	templates Templates
	labels    item.Labels
}

// NewComposer creates a composer
func NewComposer(templates Templates, labels item.Labels) *Composer {
	return &Composer{templates: templates, labels: labels}
}

// BuildSection renders one status section, or "" when items is empty.
// The section is terminated by the separator line.
func (c *Composer) BuildSection(items []*item.Item, overdue bool) string {
	if len(items) == 0 {
		return ""
	}

	status := StatusDue
	if overdue {
		status = StatusOverdue
	}

	var b strings.Builder
	b.WriteString(textfmt.Format(c.templates.SectionHeader, textfmt.Vars{"status": status}))
	b.WriteByte('\n')
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it.Description())
		b.WriteString(" - ")
		b.WriteString(it.DueLabel(c.labels))
		b.WriteByte('\n')
	}
	b.WriteString(c.templates.Separator)
	b.WriteByte('\n')

	return b.String()
}

// Compose builds the reminder for a classified batch. It returns false when
// both lists are empty and nothing should be sent.
func (c *Composer) Compose(due, overdue []*item.Item, url string) (*Message, bool) {
	count := len(due) + len(overdue)
	if count == 0 {
		return nil, false
	}

	var body strings.Builder
	body.WriteString(c.BuildSection(due, false))
	if len(due) > 0 && len(overdue) > 0 {
		body.WriteByte('\n')
	}
	body.WriteString(c.BuildSection(overdue, true))
	body.WriteString(textfmt.Format(c.templates.Footer, textfmt.Vars{"url": url}))

	return &Message{
		Subject: textfmt.Format(c.templates.Subject, textfmt.Vars{"count": strconv.Itoa(count)}),
		Body:    body.String(),
	}, true
}
