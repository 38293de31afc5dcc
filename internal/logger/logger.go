package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger is the main interface for logging throughout the application
type Logger interface {
	// Standard logging methods
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// Structured logging with context
	DebugContext(ctx context.Context, msg string, args ...interface{})
	InfoContext(ctx context.Context, msg string, args ...interface{})
	WarnContext(ctx context.Context, msg string, args ...interface{})
	ErrorContext(ctx context.Context, msg string, args ...interface{})

	// WithFields returns a logger with additional fields
	WithFields(fields map[string]interface{}) Logger

	// WithComponent returns a logger tagged with a component
	WithComponent(component Component) Logger

	// WithSource returns a logger tagged with a log source
	WithSource(source LogSource) Logger

	// Close flushes and closes all log destinations
	Close() error
}

// LogEntry represents a single log entry with all metadata
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Component Component              `json:"component,omitempty"`
	Source    LogSource              `json:"log_source,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	RunID     string                 `json:"run_id,omitempty"`
	TriggerID string                 `json:"trigger_id,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type ctxKey string

const (
	runIDKey     ctxKey = "run_id"
	triggerIDKey ctxKey = "trigger_id"
)

// WithRunID tags ctx so every context-aware log line carries the run ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithTriggerID tags ctx with the trigger that started the run
func WithTriggerID(ctx context.Context, triggerID string) context.Context {
	return context.WithValue(ctx, triggerIDKey, triggerID)
}

// RunID returns the run ID stored in ctx, if any
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// TriggerID returns the trigger ID stored in ctx, if any
func TriggerID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(triggerIDKey).(string)
	return id
}

// MultiLogger implements Logger by dispatching to multiple backends
type MultiLogger struct {
	config     *Config
	console    *ConsoleLogger
	file       *FileLogger
	baseFields map[string]interface{}
	component  Component
	source     LogSource
	mu         sync.RWMutex
}

// NewLogger creates a new multi-tier logger based on configuration
func NewLogger(config *Config) (*MultiLogger, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	ml := &MultiLogger{
		config:     config,
		baseFields: make(map[string]interface{}),
	}

	// Tier 1: Console
	if config.Console.Enabled {
		var out io.Writer = os.Stdout
		if config.Console.Stderr {
			out = os.Stderr
		}
		ml.console = NewConsoleLogger(config, out)
	}

	// Tier 2: File (optional)
	if config.File.Enabled {
		file, err := NewFileLogger(config)
		if err != nil {
			// File logging is optional; keep going with the console tier
			fmt.Fprintf(os.Stderr, "Warning: Failed to create file logger: %v\n", err)
		} else {
			ml.file = file
		}
	}

	return ml, nil
}

// Debug logs a debug message
func (ml *MultiLogger) Debug(msg string, args ...interface{}) {
	ml.DebugContext(context.Background(), msg, args...)
}

// Info logs an info message
func (ml *MultiLogger) Info(msg string, args ...interface{}) {
	ml.InfoContext(context.Background(), msg, args...)
}

// Warn logs a warning message
func (ml *MultiLogger) Warn(msg string, args ...interface{}) {
	ml.WarnContext(context.Background(), msg, args...)
}

// Error logs an error message
func (ml *MultiLogger) Error(msg string, args ...interface{}) {
	ml.ErrorContext(context.Background(), msg, args...)
}

// DebugContext logs a debug message with context
func (ml *MultiLogger) DebugContext(ctx context.Context, msg string, args ...interface{}) {
	ml.log(ctx, LevelDebug, msg, args...)
}

// InfoContext logs an info message with context
func (ml *MultiLogger) InfoContext(ctx context.Context, msg string, args ...interface{}) {
	ml.log(ctx, LevelInfo, msg, args...)
}

// WarnContext logs a warning message with context
func (ml *MultiLogger) WarnContext(ctx context.Context, msg string, args ...interface{}) {
	ml.log(ctx, LevelWarn, msg, args...)
}

// ErrorContext logs an error message with context
func (ml *MultiLogger) ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	ml.log(ctx, LevelError, msg, args...)
}

// WithFields returns a new logger with additional fields
func (ml *MultiLogger) WithFields(fields map[string]interface{}) Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	merged := make(map[string]interface{}, len(ml.baseFields)+len(fields))
	for k, v := range ml.baseFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	clone := ml.clone()
	clone.baseFields = merged
	return clone
}

// WithComponent returns a new logger tagged with a component
func (ml *MultiLogger) WithComponent(component Component) Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	clone := ml.clone()
	clone.component = component
	return clone
}

// WithSource returns a new logger tagged with a log source
func (ml *MultiLogger) WithSource(source LogSource) Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	clone := ml.clone()
	clone.source = source
	return clone
}

// clone copies the shared backends; callers hold ml.mu
func (ml *MultiLogger) clone() *MultiLogger {
	return &MultiLogger{
		config:     ml.config,
		console:    ml.console,
		file:       ml.file,
		baseFields: ml.baseFields,
		component:  ml.component,
		source:     ml.source,
	}
}

// Close flushes and closes all log destinations
func (ml *MultiLogger) Close() error {
	var errs []error

	if ml.console != nil {
		if err := ml.console.Close(); err != nil {
			errs = append(errs, fmt.Errorf("console close: %w", err))
		}
	}

	if ml.file != nil {
		if err := ml.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("file close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing logger: %v", errs)
	}

	return nil
}

// levelRank orders levels for threshold comparison
var levelRank = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// shouldLog checks if a message at the given level should be logged
func (ml *MultiLogger) shouldLog(level LogLevel) bool {
	return levelRank[level] >= levelRank[ml.config.Level]
}

// log dispatches a log entry to all enabled backends
func (ml *MultiLogger) log(ctx context.Context, level LogLevel, msg string, args ...interface{}) {
	if !ml.shouldLog(level) {
		return
	}

	ml.mu.RLock()
	defer ml.mu.RUnlock()

	fields := collectFields(ctx, ml.baseFields, args)

	if ml.console != nil {
		ml.console.log(level, msg, ml.component, ml.source, fields)
	}

	if ml.file != nil {
		ml.file.log(level, msg, ml.component, ml.source, fields)
	}
}

// collectFields merges base fields, variadic key-value pairs and IDs carried by ctx
func collectFields(ctx context.Context, base map[string]interface{}, args []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(base)+len(args)/2+2)
	for k, v := range base {
		fields[k] = v
	}

	for i := 0; i+1 < len(args); i += 2 {
		key := fmt.Sprintf("%v", args[i])
		if err, ok := args[i+1].(error); ok {
			fields[key] = err.Error()
			continue
		}
		fields[key] = args[i+1]
	}

	if ctx != nil {
		if id, ok := ctx.Value(runIDKey).(string); ok {
			fields[string(runIDKey)] = id
		}
		if id, ok := ctx.Value(triggerIDKey).(string); ok {
			fields[string(triggerIDKey)] = id
		}
	}

	return fields
}

// NoOpLogger is a logger that does nothing (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, args ...interface{})                             {}
func (n *NoOpLogger) Info(msg string, args ...interface{})                              {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})                              {}
func (n *NoOpLogger) Error(msg string, args ...interface{})                             {}
func (n *NoOpLogger) DebugContext(ctx context.Context, msg string, args ...interface{}) {}
func (n *NoOpLogger) InfoContext(ctx context.Context, msg string, args ...interface{})  {}
func (n *NoOpLogger) WarnContext(ctx context.Context, msg string, args ...interface{})  {}
func (n *NoOpLogger) ErrorContext(ctx context.Context, msg string, args ...interface{}) {}
func (n *NoOpLogger) WithFields(fields map[string]interface{}) Logger                   { return n }
func (n *NoOpLogger) WithComponent(component Component) Logger                          { return n }
func (n *NoOpLogger) WithSource(source LogSource) Logger                                { return n }
func (n *NoOpLogger) Close() error                                                      { return nil }

// Ensure NoOpLogger implements Logger
var _ Logger = (*NoOpLogger)(nil)

// Global default logger (can be replaced)
var defaultLogger Logger = &NoOpLogger{}
var loggerMu sync.RWMutex

// SetDefault sets the global default logger
func SetDefault(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = l
}

// Default returns the global default logger
func Default() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}
