package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ConsoleLogger implements Tier 1: Console/Terminal logging.
// Writes are synchronous: an evaluation run is short-lived and may exit
// right after reporting a failure, so nothing may sit in a buffer.
type ConsoleLogger struct {
	config  *Config
	handler slog.Handler
}

// NewConsoleLogger creates a console logger writing to w
func NewConsoleLogger(config *Config, w io.Writer) *ConsoleLogger {
	opts := &slog.HandlerOptions{
		Level: slogLevel(config.Level),
	}

	var handler slog.Handler
	switch {
	case config.Format == FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case config.Console.Color:
		handler = newColorTextHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &ConsoleLogger{config: config, handler: handler}
}

// log writes a log entry to console
func (cl *ConsoleLogger) log(level LogLevel, msg string, component Component, source LogSource, fields map[string]interface{}) {
	record := slog.NewRecord(time.Now(), slogLevel(level), msg, 0)

	if component != "" {
		record.AddAttrs(slog.String("component", string(component)))
	}
	if source != "" {
		record.AddAttrs(slog.String("log_source", string(source)))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		record.AddAttrs(slog.Any(k, fields[k]))
	}

	// Nothing useful can be done with a failed console write
	_ = cl.handler.Handle(context.Background(), record)
}

// Close implements the tier lifecycle; console output is unbuffered
func (cl *ConsoleLogger) Close() error {
	return nil
}

// slogLevel converts our LogLevel to slog.Level
func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// colorTextHandler renders one human-readable line per record:
//
//	15:04:05 INFO  [scanner] Scan complete due=1 overdue=2
type colorTextHandler struct {
	w    io.Writer
	opts *slog.HandlerOptions
	mu   sync.Mutex

	debugColor *color.Color
	infoColor  *color.Color
	warnColor  *color.Color
	errorColor *color.Color
	dimColor   *color.Color
}

// newColorTextHandler creates a new colored text handler
func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *colorTextHandler {
	return &colorTextHandler{
		w:          w,
		opts:       opts,
		debugColor: color.New(color.FgCyan),
		infoColor:  color.New(color.FgGreen),
		warnColor:  color.New(color.FgYellow),
		errorColor: color.New(color.FgRed, color.Bold),
		dimColor:   color.New(color.Faint),
	}
}

// Enabled implements slog.Handler
func (h *colorTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts != nil && h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle implements slog.Handler
func (h *colorTextHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(h.dimColor.Sprint(r.Time.Format("15:04:05")))
	b.WriteByte(' ')
	b.WriteString(h.levelColor(r.Level).Sprintf("%-5s", r.Level.String()))
	b.WriteByte(' ')

	var attrs []string
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "component":
			fmt.Fprintf(&b, "[%s] ", a.Value.String())
		case "log_source":
		default:
			attrs = append(attrs, h.dimColor.Sprint(a.Key+"=")+fmt.Sprint(a.Value.Any()))
		}
		return true
	})

	b.WriteString(r.Message)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *colorTextHandler) levelColor(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return h.errorColor
	case level >= slog.LevelWarn:
		return h.warnColor
	case level >= slog.LevelInfo:
		return h.infoColor
	default:
		return h.debugColor
	}
}

// WithAttrs implements slog.Handler. Attributes always arrive on the record.
func (h *colorTextHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

// WithGroup implements slog.Handler
func (h *colorTextHandler) WithGroup(_ string) slog.Handler {
	return h
}
