package logger

import (
	"context"
	"sync"
)

// Record is one captured log call
type Record struct {
	Level     LogLevel
	Message   string
	Component Component
	Fields    map[string]interface{}
}

// Recorder is an in-memory Logger that keeps every entry. Tests use it to
// assert on diagnostics without parsing console output.
type Recorder struct {
	mu        *sync.Mutex
	records   *[]Record
	fields    map[string]interface{}
	component Component
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{
		mu:      &sync.Mutex{},
		records: &[]Record{},
	}
}

// Records returns a copy of everything logged so far, across all derived loggers
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(*r.records))
	copy(out, *r.records)
	return out
}

// Has reports whether a record at level with the given message exists
func (r *Recorder) Has(level LogLevel, msg string) bool {
	for _, rec := range r.Records() {
		if rec.Level == level && rec.Message == msg {
			return true
		}
	}
	return false
}

func (r *Recorder) add(ctx context.Context, level LogLevel, msg string, args []interface{}) {
	fields := collectFields(ctx, r.fields, args)
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.records = append(*r.records, Record{Level: level, Message: msg, Component: r.component, Fields: fields})
}

func (r *Recorder) Debug(msg string, args ...interface{}) { r.add(nil, LevelDebug, msg, args) }
func (r *Recorder) Info(msg string, args ...interface{})  { r.add(nil, LevelInfo, msg, args) }
func (r *Recorder) Warn(msg string, args ...interface{})  { r.add(nil, LevelWarn, msg, args) }
func (r *Recorder) Error(msg string, args ...interface{}) { r.add(nil, LevelError, msg, args) }

func (r *Recorder) DebugContext(ctx context.Context, msg string, args ...interface{}) {
	r.add(ctx, LevelDebug, msg, args)
}

func (r *Recorder) InfoContext(ctx context.Context, msg string, args ...interface{}) {
	r.add(ctx, LevelInfo, msg, args)
}

func (r *Recorder) WarnContext(ctx context.Context, msg string, args ...interface{}) {
	r.add(ctx, LevelWarn, msg, args)
}

func (r *Recorder) ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	r.add(ctx, LevelError, msg, args)
}

// WithFields returns a recorder sharing the same record log
func (r *Recorder) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(r.fields)+len(fields))
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Recorder{mu: r.mu, records: r.records, fields: merged, component: r.component}
}

// WithComponent returns a recorder sharing the same record log
func (r *Recorder) WithComponent(component Component) Logger {
	return &Recorder{mu: r.mu, records: r.records, fields: r.fields, component: component}
}

// WithSource is a no-op for the recorder
func (r *Recorder) WithSource(source LogSource) Logger { return r }

// Close implements Logger
func (r *Recorder) Close() error { return nil }

var _ Logger = (*Recorder)(nil)
