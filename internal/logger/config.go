package logger

import (
	"fmt"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// LogSource distinguishes the process that produced a log line
type LogSource string

const (
	LogSourceRun    LogSource = "evaluation_run" // One-shot evaluation invocations
	LogSourceDaemon LogSource = "trigger_daemon" // Long-running trigger runner
	LogSourceCLI    LogSource = "cli"            // Administrative commands
)

// Component identifies which part of the system generated the log
type Component string

const (
	ComponentEvaluator Component = "evaluator"
	ComponentScanner   Component = "scanner"
	ComponentNotifier  Component = "notifier"
	ComponentScheduler Component = "scheduler"
	ComponentReporter  Component = "reporter"
	ComponentSource    Component = "source"
	ComponentRedis     Component = "redis"
)

// Config holds the logging configuration for all tiers
type Config struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`

	// Tier 1: Console
	Console ConsoleConfig `yaml:"console"`

	// Tier 2: Rotating file
	File FileConfig `yaml:"file"`
}

// ConsoleConfig configures console logging (Tier 1)
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
	Color   bool `yaml:"color"` // text mode only
	Stderr  bool `yaml:"stderr"`
}

// FileConfig configures file-based logging (Tier 2)
type FileConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig returns a default logging configuration
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: FormatText,
		Console: ConsoleConfig{
			Enabled: true,
			Color:   true,
		},
		File: FileConfig{
			Enabled:    false,
			Path:       "/var/log/maintreminder/maintreminder.log",
			MaxSizeMB:  20,
			MaxBackups: 5,
			MaxAgeDays: 90,
			Compress:   true,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}

	switch c.Format {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}

	if c.File.Enabled {
		if c.File.Path == "" {
			return fmt.Errorf("file logging enabled but path is empty")
		}
		if c.File.MaxSizeMB <= 0 {
			return fmt.Errorf("file max size must be > 0")
		}
	}

	return nil
}
