// Package reporter is the last-resort failure path of an evaluation run.
package reporter

import (
	"context"
	"strings"

	"github.com/muaviaUsmani/maintreminder/internal/config"
	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
	"github.com/muaviaUsmani/maintreminder/internal/notify"
	"github.com/muaviaUsmani/maintreminder/internal/textfmt"
)

// Reporter notifies a human about a failed run. It tolerates a partially
// loaded or missing configuration.
type Reporter struct {
	cfg       *config.Config
	transport notify.Transport
	log       logger.Logger
}

// New creates a reporter. cfg may be nil when configuration could not be
// loaded; transport may be nil when none could be built.
func New(cfg *config.Config, transport notify.Transport, log logger.Logger) *Reporter {
	if log == nil {
		log = &logger.NoOpLogger{}
	}
	return &Reporter{
		cfg:       cfg,
		transport: transport,
		log:       log.WithComponent(logger.ComponentReporter),
	}
}

// Report notifies the configured or fallback recipient about err. With no
// usable recipient the error is only logged. Transport failures are never
// sent back through the transport. When fatal is true err is returned so
// the host marks the run failed; otherwise Report returns nil.
func (r *Reporter) Report(ctx context.Context, err error, fatal bool) error {
	if err == nil {
		return nil
	}

	kind := kindOf(err)
	r.log.ErrorContext(ctx, "Evaluation run failed", "kind", kind, "fatal", fatal, "error", err)

	switch {
	case apperrors.Is(err, apperrors.KindTransport):
		r.log.ErrorContext(ctx, "NOTIFICATION TRANSPORT FAILED; failure cannot be reported through the same channel",
			"error", err)

	case r.transport == nil:
		r.log.ErrorContext(ctx, "No transport available, failure logged locally only")

	default:
		to, ok := r.cfg.ReportRecipient()
		if !ok {
			r.log.ErrorContext(ctx, "No recipient for failure report, failure logged locally only")
			break
		}

		subject, body := r.render(err, kind)
		if sendErr := r.transport.Send(ctx, to, subject, body); sendErr != nil {
			r.log.ErrorContext(ctx, "Failed to deliver failure report", "to", to, "error", sendErr)
		} else {
			r.log.InfoContext(ctx, "Failure report sent", "to", to)
		}
	}

	if fatal {
		return err
	}
	return nil
}

// Guard runs fn, converting a panic into an error, and reports any failure
// exactly once
func (r *Reporter) Guard(ctx context.Context, fatal bool, fn func(ctx context.Context) error) error {
	return r.Report(ctx, runRecovered(ctx, fn), fatal)
}

func runRecovered(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := apperrors.FromPanic(recover()); p != nil {
			err = p
		}
	}()
	return fn(ctx)
}

// render builds the failure notification from the configured templates
func (r *Reporter) render(err error, kind string) (string, string) {
	tmpl := config.DefaultConfig().Templates
	url := ""
	if r.cfg != nil {
		if r.cfg.Templates.ErrorSubject != "" {
			tmpl.ErrorSubject = r.cfg.Templates.ErrorSubject
		}
		if r.cfg.Templates.ErrorBody != "" {
			tmpl.ErrorBody = r.cfg.Templates.ErrorBody
		}
		url = strings.TrimSpace(r.cfg.DiagnosticsURL)
	}
	if url == "" {
		url = "n/a"
	}

	vars := textfmt.Vars{
		"error": err.Error(),
		"kind":  kind,
		"url":   url,
	}
	return textfmt.Format(tmpl.ErrorSubject, vars), textfmt.Format(tmpl.ErrorBody, vars)
}

func kindOf(err error) string {
	if k, ok := apperrors.KindOf(err); ok {
		return string(k)
	}
	if _, ok := err.(*apperrors.PanicError); ok {
		return "panic"
	}
	return "unknown"
}
