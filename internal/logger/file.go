package logger

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLogger implements Tier 2: JSON lines written to a rotating file.
// Rotation, retention and compression are delegated to lumberjack.
type FileLogger struct {
	config *Config
	logger *lumberjack.Logger
	mu     sync.Mutex
	closed bool
}

// NewFileLogger creates a new file logger
func NewFileLogger(config *Config) (*FileLogger, error) {
	if !config.File.Enabled {
		return nil, fmt.Errorf("file logging is not enabled")
	}

	return &FileLogger{
		config: config,
		logger: &lumberjack.Logger{
			Filename:   config.File.Path,
			MaxSize:    config.File.MaxSizeMB,
			MaxBackups: config.File.MaxBackups,
			MaxAge:     config.File.MaxAgeDays,
			Compress:   config.File.Compress,
		},
	}, nil
}

// log writes one JSON line for the entry
func (fl *FileLogger) log(level LogLevel, msg string, component Component, source LogSource, fields map[string]interface{}) {
	entry := &LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
		Component: component,
		Source:    source,
		Fields:    fields,
	}

	if id, ok := fields[string(runIDKey)].(string); ok {
		entry.RunID = id
	}
	if id, ok := fields[string(triggerIDKey)].(string); ok {
		entry.TriggerID = id
	}
	if err, ok := fields["error"]; ok {
		entry.Error = fmt.Sprintf("%v", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()
	// lumberjack reopens the file on write; after Close nothing may
	if fl.closed {
		return
	}
	// Write errors have no recovery path inside the logger
	_, _ = fl.logger.Write(append(data, '\n'))
}

// Close closes the underlying file. Later writes are dropped.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	fl.closed = true

	if err := fl.logger.Close(); err != nil {
		return fmt.Errorf("failed to close file logger: %w", err)
	}
	return nil
}

// Rotate triggers manual log rotation
func (fl *FileLogger) Rotate() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.logger.Rotate()
}
