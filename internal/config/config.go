package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/muaviaUsmani/maintreminder/internal/datemath"
	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
	"github.com/muaviaUsmani/maintreminder/internal/serialization"
	"github.com/muaviaUsmani/maintreminder/internal/textfmt"
)

// PlaceholderRecipient is the shipped example address. A config still
// carrying it has not been edited and is rejected.
const PlaceholderRecipient = "you@example.com"

// Transport names
const (
	TransportLog = "log"
	TransportSES = "ses"
)

// Config holds all configuration for one reminder invocation.
// It is built once by Load and passed explicitly to every component.
type Config struct {
	// Recipient receives reminders and failure reports
	Recipient string `yaml:"recipient"`
	// FallbackRecipient receives failure reports when Recipient is unusable
	FallbackRecipient string `yaml:"fallback_recipient"`
	// Sender is the From address for outgoing mail
	Sender string `yaml:"sender"`

	Sheet      SheetConfig     `yaml:"sheet"`
	Schedule   ScheduleConfig  `yaml:"schedule"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Scan       ScanConfig      `yaml:"scan"`
	Templates  TemplateConfig  `yaml:"templates"`
	Columns    ColumnConfig    `yaml:"columns"`

	// Transport selects the notification transport: "log" or "ses"
	Transport string    `yaml:"transport"`
	SES       SESConfig `yaml:"ses"`

	// RedisURL locates the trigger store
	RedisURL string       `yaml:"redis_url"`
	Runner   RunnerConfig `yaml:"runner"`

	// DiagnosticsURL is linked from failure reports
	DiagnosticsURL string `yaml:"diagnostics_url"`
	// Timezone is the IANA zone used to decide what "today" is
	Timezone string `yaml:"timezone"`

	Logging *logger.Config `yaml:"logging"`
}

// SheetConfig identifies the maintenance log
type SheetConfig struct {
	Name string `yaml:"name"`
	// Path is a local CSV path or an s3://bucket/key URL
	Path string `yaml:"path"`
	// Range bounds the scan in A1 notation; its first row is the header
	Range string `yaml:"range"`
	// URL is linked from the reminder footer
	URL string `yaml:"url"`
}

// ScheduleConfig is the declarative weekday × hour trigger set
type ScheduleConfig struct {
	Days  []string `yaml:"days"`
	Hours []int    `yaml:"hours"`
}

// ThresholdConfig holds the classification windows in days
type ThresholdConfig struct {
	DueDays     int `yaml:"due_days"`
	OverdueDays int `yaml:"overdue_days"`
}

// ScanConfig tunes the log scan
type ScanConfig struct {
	// EmptyRowLimit ends the scan after this many consecutive rows missing a
	// task or due date. Sheets are usually pre-sized far beyond their data.
	EmptyRowLimit int `yaml:"empty_row_limit"`
}

// TemplateConfig holds the message templates. Tokens: {count}, {url},
// {status}, {days}, {error}.
type TemplateConfig struct {
	Subject       string `yaml:"subject"`
	SectionHeader string `yaml:"section_header"`
	Separator     string `yaml:"separator"`
	Footer        string `yaml:"footer"`
	DueToday      string `yaml:"due_today"`
	DueFuture     string `yaml:"due_future"`
	DuePast       string `yaml:"due_past"`
	ErrorSubject  string `yaml:"error_subject"`
	ErrorBody     string `yaml:"error_body"`
}

// ColumnConfig holds case-insensitive substring hints for header cells
type ColumnConfig struct {
	Task     string `yaml:"task"`
	DueDate  string `yaml:"due_date"`
	Archived string `yaml:"archived"`
}

// SESConfig holds AWS SES credentials
type SESConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// RunnerConfig tunes the trigger daemon and its Redis records
type RunnerConfig struct {
	Interval time.Duration `yaml:"interval"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
	// RecordFormat encodes stored triggers: "json" or "protobuf"
	RecordFormat string `yaml:"record_format"`
	// KeyPrefix namespaces the scheduler's Redis keys
	KeyPrefix string `yaml:"key_prefix"`
	// HistorySuccessTTL and HistoryFailureTTL bound how long run records live
	HistorySuccessTTL time.Duration `yaml:"history_success_ttl"`
	HistoryFailureTTL time.Duration `yaml:"history_failure_ttl"`
}

// DefaultConfig returns the shipped defaults. The recipient is the
// placeholder and must be overridden.
func DefaultConfig() *Config {
	return &Config{
		Recipient: PlaceholderRecipient,
		Sender:    "maintenance-reminder@example.com",
		Sheet: SheetConfig{
			Name:  "Maintenance",
			Path:  "maintenance.csv",
			Range: "A1:E200",
		},
		Schedule: ScheduleConfig{
			Days:  []string{"SATURDAY"},
			Hours: []int{7},
		},
		Thresholds: ThresholdConfig{
			DueDays:     7,
			OverdueDays: 14,
		},
		Scan: ScanConfig{
			EmptyRowLimit: 4,
		},
		Templates: TemplateConfig{
			Subject:       "Home maintenance: {count} task(s) need attention",
			SectionHeader: "The following tasks are {status}:",
			Separator:     "------------------------------",
			Footer:        "Open the maintenance log: {url}",
			DueToday:      "due today",
			DueFuture:     "due in {days} days",
			DuePast:       "due {days} days ago",
			ErrorSubject:  "Maintenance reminder failed",
			ErrorBody:     "The maintenance reminder run failed:\n\n{error}\n\nDiagnostics: {url}",
		},
		Columns: ColumnConfig{
			Task:     "maintenance",
			DueDate:  "next due",
			Archived: "archived",
		},
		Transport: TransportLog,
		SES: SESConfig{
			Region: "us-east-1",
		},
		RedisURL: "redis://localhost:6379",
		Runner: RunnerConfig{
			Interval:          30 * time.Second,
			LockTTL:           10 * time.Minute,
			RecordFormat:      "protobuf",
			KeyPrefix:         "maintreminder",
			HistorySuccessTTL: 7 * 24 * time.Hour,
			HistoryFailureTTL: 30 * 24 * time.Hour,
		},
		Timezone: "UTC",
		Logging:  logger.DefaultConfig(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then a .env file in the working directory (if any),
// then environment variables. Load only fails on unreadable or malformed
// input; call Validate to check the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, apperrors.Configuration("read config", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, apperrors.Configuration("parse config", err)
		}
		if cfg.Logging == nil {
			cfg.Logging = logger.DefaultConfig()
		}
	}

	// .env never overrides variables already present in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, apperrors.Configuration("load .env", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg
func applyEnv(cfg *Config) {
	cfg.Recipient = getEnv("REMINDER_RECIPIENT", cfg.Recipient)
	cfg.FallbackRecipient = getEnv("REMINDER_FALLBACK_RECIPIENT", cfg.FallbackRecipient)
	cfg.Sender = getEnv("REMINDER_SENDER", cfg.Sender)

	cfg.Sheet.Name = getEnv("SHEET_NAME", cfg.Sheet.Name)
	cfg.Sheet.Path = getEnv("SHEET_PATH", cfg.Sheet.Path)
	cfg.Sheet.Range = getEnv("SHEET_RANGE", cfg.Sheet.Range)
	cfg.Sheet.URL = getEnv("SHEET_URL", cfg.Sheet.URL)

	cfg.Schedule.Days = getEnvAsStringSlice("SCHEDULE_DAYS", cfg.Schedule.Days)
	cfg.Schedule.Hours = getEnvAsIntSlice("SCHEDULE_HOURS", cfg.Schedule.Hours)

	cfg.Thresholds.DueDays = getEnvAsInt("DUE_THRESHOLD_DAYS", cfg.Thresholds.DueDays)
	cfg.Thresholds.OverdueDays = getEnvAsInt("OVERDUE_THRESHOLD_DAYS", cfg.Thresholds.OverdueDays)
	cfg.Scan.EmptyRowLimit = getEnvAsInt("SCAN_EMPTY_ROW_LIMIT", cfg.Scan.EmptyRowLimit)

	cfg.Columns.Task = getEnv("COLUMN_TASK", cfg.Columns.Task)
	cfg.Columns.DueDate = getEnv("COLUMN_DUE_DATE", cfg.Columns.DueDate)
	cfg.Columns.Archived = getEnv("COLUMN_ARCHIVED", cfg.Columns.Archived)

	cfg.Transport = getEnv("NOTIFY_TRANSPORT", cfg.Transport)
	cfg.SES.Region = getEnv("SES_REGION", cfg.SES.Region)
	cfg.SES.AccessKey = getEnv("AWS_ACCESS_KEY_ID", cfg.SES.AccessKey)
	cfg.SES.SecretKey = getEnv("AWS_SECRET_ACCESS_KEY", cfg.SES.SecretKey)

	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.Runner.Interval = getEnvAsDuration("RUNNER_INTERVAL", cfg.Runner.Interval)
	cfg.Runner.LockTTL = getEnvAsDuration("RUNNER_LOCK_TTL", cfg.Runner.LockTTL)
	cfg.Runner.RecordFormat = getEnv("TRIGGER_RECORD_FORMAT", cfg.Runner.RecordFormat)
	cfg.Runner.KeyPrefix = getEnv("REDIS_KEY_PREFIX", cfg.Runner.KeyPrefix)
	cfg.Runner.HistorySuccessTTL = getEnvAsDuration("RUN_HISTORY_SUCCESS_TTL", cfg.Runner.HistorySuccessTTL)
	cfg.Runner.HistoryFailureTTL = getEnvAsDuration("RUN_HISTORY_FAILURE_TTL", cfg.Runner.HistoryFailureTTL)

	cfg.DiagnosticsURL = getEnv("DIAGNOSTICS_URL", cfg.DiagnosticsURL)
	cfg.Timezone = getEnv("REMINDER_TIMEZONE", cfg.Timezone)

	applyLoggingEnv(cfg.Logging)
}

// applyLoggingEnv overlays LOG_* variables onto the logging config
func applyLoggingEnv(cfg *logger.Config) {
	if level := getEnv("LOG_LEVEL", ""); level != "" {
		cfg.Level = logger.LogLevel(level)
	}
	if format := getEnv("LOG_FORMAT", ""); format != "" {
		cfg.Format = logger.LogFormat(format)
	}

	cfg.Console.Enabled = getEnvAsBool("LOG_CONSOLE_ENABLED", cfg.Console.Enabled)
	cfg.Console.Color = getEnvAsBool("LOG_COLOR", cfg.Console.Color)

	cfg.File.Enabled = getEnvAsBool("LOG_FILE_ENABLED", cfg.File.Enabled)
	cfg.File.Path = getEnv("LOG_FILE_PATH", cfg.File.Path)
	cfg.File.MaxSizeMB = getEnvAsInt("LOG_FILE_MAX_SIZE_MB", cfg.File.MaxSizeMB)
	cfg.File.MaxBackups = getEnvAsInt("LOG_FILE_MAX_BACKUPS", cfg.File.MaxBackups)
	cfg.File.MaxAgeDays = getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", cfg.File.MaxAgeDays)
	cfg.File.Compress = getEnvAsBool("LOG_FILE_COMPRESS", cfg.File.Compress)
}

// Validate checks the configuration. Every failure is a configuration error.
func (c *Config) Validate() error {
	if !IsUsableAddress(c.Recipient) {
		if strings.TrimSpace(c.Recipient) == PlaceholderRecipient {
			return apperrors.Configurationf("validate", "recipient is still the placeholder %q; set REMINDER_RECIPIENT or recipient in the config file", PlaceholderRecipient)
		}
		return apperrors.Configurationf("validate", "recipient address is required")
	}

	if c.Thresholds.DueDays < 0 || c.Thresholds.OverdueDays < 0 {
		return apperrors.Configurationf("validate", "thresholds cannot be negative (due=%d, overdue=%d)", c.Thresholds.DueDays, c.Thresholds.OverdueDays)
	}
	if c.Scan.EmptyRowLimit < 1 {
		return apperrors.Configurationf("validate", "scan.empty_row_limit must be at least 1")
	}

	if strings.TrimSpace(c.Sheet.Path) == "" {
		return apperrors.Configurationf("validate", "sheet path is required")
	}
	if strings.TrimSpace(c.Columns.Task) == "" || strings.TrimSpace(c.Columns.DueDate) == "" {
		return apperrors.Configurationf("validate", "task and due date column hints are required")
	}

	if _, err := c.Weekdays(); err != nil {
		return apperrors.Configuration("validate schedule", err)
	}
	for _, h := range c.Schedule.Hours {
		if h < 0 || h > 23 {
			return apperrors.Configurationf("validate schedule", "hour %d out of range 0-23", h)
		}
	}

	if err := c.Templates.validate(); err != nil {
		return apperrors.Configuration("validate templates", err)
	}

	if _, err := serialization.ParseFormat(c.Runner.RecordFormat); err != nil {
		return apperrors.Configuration("validate runner", err)
	}

	switch c.Transport {
	case TransportLog, TransportSES:
	default:
		return apperrors.Configurationf("validate", "unknown transport %q (must be %q or %q)", c.Transport, TransportLog, TransportSES)
	}

	if _, err := c.Location(); err != nil {
		return apperrors.Configuration("validate timezone", err)
	}

	if c.Logging == nil {
		return apperrors.Configurationf("validate", "logging config is missing")
	}
	if err := c.Logging.Validate(); err != nil {
		return apperrors.Configuration("validate logging", err)
	}

	return nil
}

// validate rejects placeholders a template cannot be given
func (t TemplateConfig) validate() error {
	allowed := []struct {
		name   string
		tmpl   string
		tokens []string
	}{
		{"subject", t.Subject, []string{"count"}},
		{"section_header", t.SectionHeader, []string{"status"}},
		{"separator", t.Separator, nil},
		{"footer", t.Footer, []string{"url"}},
		{"due_today", t.DueToday, nil},
		{"due_future", t.DueFuture, []string{"days"}},
		{"due_past", t.DuePast, []string{"days"}},
		{"error_subject", t.ErrorSubject, []string{"error", "kind", "url"}},
		{"error_body", t.ErrorBody, []string{"error", "kind", "url"}},
	}

	for _, a := range allowed {
		for _, tok := range textfmt.Tokens(a.tmpl) {
			if !slices.Contains(a.tokens, tok) {
				return fmt.Errorf("template %s uses unknown placeholder {%s}", a.name, tok)
			}
		}
	}
	return nil
}

// Weekdays parses the configured schedule days
func (c *Config) Weekdays() ([]time.Weekday, error) {
	return datemath.ParseWeekdays(c.Schedule.Days)
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ReportRecipient returns the best address for failure reports: the
// configured recipient when usable, else the fallback. ok is false when
// neither is usable.
func (c *Config) ReportRecipient() (string, bool) {
	if c == nil {
		return "", false
	}
	if IsUsableAddress(c.Recipient) {
		return strings.TrimSpace(c.Recipient), true
	}
	if IsUsableAddress(c.FallbackRecipient) {
		return strings.TrimSpace(c.FallbackRecipient), true
	}
	return "", false
}

// IsUsableAddress reports whether addr is present, not the placeholder and
// shaped like an email address
func IsUsableAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" || addr == PlaceholderRecipient {
		return false
	}
	at := strings.LastIndex(addr, "@")
	return at > 0 && at < len(addr)-1
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStringSlice retrieves an environment variable as a comma-separated list
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// getEnvAsIntSlice retrieves a comma-separated list of integers. Any
// malformed entry discards the whole value.
func getEnvAsIntSlice(key string, defaultValue []int) []int {
	parts := getEnvAsStringSlice(key, nil)
	if parts == nil {
		return defaultValue
	}
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		result = append(result, v)
	}
	return result
}
