package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Recipient = "owner@home.test"
	return cfg
}

func TestDefaultConfig_RejectsPlaceholder(t *testing.T) {
	err := DefaultConfig().Validate()
	if err == nil {
		t.Fatal("expected placeholder recipient to fail validation")
	}
	if !apperrors.Is(err, apperrors.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Thresholds.DueDays != 7 || cfg.Thresholds.OverdueDays != 14 {
		t.Errorf("unexpected thresholds %+v", cfg.Thresholds)
	}
	if cfg.Scan.EmptyRowLimit != 4 {
		t.Errorf("expected empty row limit 4, got %d", cfg.Scan.EmptyRowLimit)
	}
	if cfg.Transport != TransportLog {
		t.Errorf("expected log transport, got %s", cfg.Transport)
	}
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminder.yaml")
	content := `
recipient: owner@home.test
sheet:
  path: /data/log.csv
  range: A1:D50
schedule:
  days: [SUNDAY, wed]
  hours: [9, 18]
thresholds:
  due_days: 3
runner:
  interval: 15s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if cfg.Recipient != "owner@home.test" {
		t.Errorf("recipient = %q", cfg.Recipient)
	}
	if cfg.Sheet.Path != "/data/log.csv" || cfg.Sheet.Range != "A1:D50" {
		t.Errorf("unexpected sheet %+v", cfg.Sheet)
	}
	if cfg.Sheet.Name != "Maintenance" {
		t.Errorf("expected default sheet name to survive, got %q", cfg.Sheet.Name)
	}
	if cfg.Thresholds.DueDays != 3 || cfg.Thresholds.OverdueDays != 14 {
		t.Errorf("unexpected thresholds %+v", cfg.Thresholds)
	}
	if cfg.Runner.Interval != 15*time.Second {
		t.Errorf("runner interval = %v", cfg.Runner.Interval)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}

	days, err := cfg.Weekdays()
	if err != nil {
		t.Fatalf("Weekdays() error: %v", err)
	}
	if len(days) != 2 || days[0] != time.Sunday || days[1] != time.Wednesday {
		t.Errorf("unexpected days %v", days)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !apperrors.Is(err, apperrors.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("schedule: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg == nil {
		t.Error("expected partially loaded config for best-effort reporting")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REMINDER_RECIPIENT", "env@home.test")
	t.Setenv("SCHEDULE_DAYS", "saturday, sunday")
	t.Setenv("SCHEDULE_HOURS", "7,19")
	t.Setenv("OVERDUE_THRESHOLD_DAYS", "30")
	t.Setenv("SCAN_EMPTY_ROW_LIMIT", "6")
	t.Setenv("NOTIFY_TRANSPORT", "ses")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("RUNNER_INTERVAL", "not-a-duration")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if cfg.Recipient != "env@home.test" {
		t.Errorf("recipient = %q", cfg.Recipient)
	}
	if len(cfg.Schedule.Days) != 2 || cfg.Schedule.Days[1] != "sunday" {
		t.Errorf("days = %v", cfg.Schedule.Days)
	}
	if len(cfg.Schedule.Hours) != 2 || cfg.Schedule.Hours[1] != 19 {
		t.Errorf("hours = %v", cfg.Schedule.Hours)
	}
	if cfg.Thresholds.OverdueDays != 30 {
		t.Errorf("overdue = %d", cfg.Thresholds.OverdueDays)
	}
	if cfg.Scan.EmptyRowLimit != 6 {
		t.Errorf("empty row limit = %d", cfg.Scan.EmptyRowLimit)
	}
	if cfg.Transport != TransportSES {
		t.Errorf("transport = %s", cfg.Transport)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %s", cfg.Logging.Level)
	}
	if cfg.Runner.Interval != 30*time.Second {
		t.Errorf("malformed duration should keep default, got %v", cfg.Runner.Interval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty recipient", func(c *Config) { c.Recipient = "" }},
		{"malformed recipient", func(c *Config) { c.Recipient = "owner" }},
		{"negative due", func(c *Config) { c.Thresholds.DueDays = -1 }},
		{"zero empty row limit", func(c *Config) { c.Scan.EmptyRowLimit = 0 }},
		{"missing sheet path", func(c *Config) { c.Sheet.Path = " " }},
		{"missing task hint", func(c *Config) { c.Columns.Task = "" }},
		{"bad weekday", func(c *Config) { c.Schedule.Days = []string{"someday"} }},
		{"bad hour", func(c *Config) { c.Schedule.Hours = []int{24} }},
		{"bad transport", func(c *Config) { c.Transport = "pigeon" }},
		{"bad record format", func(c *Config) { c.Runner.RecordFormat = "xml" }},
		{"unknown template placeholder", func(c *Config) { c.Templates.Subject = "{cuont} tasks" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !apperrors.Is(err, apperrors.KindConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestValidate_EmptyScheduleAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.Days = nil
	cfg.Schedule.Hours = nil
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty schedule should be valid, got %v", err)
	}
}

func TestReportRecipient(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		fallback  string
		want      string
		wantOK    bool
	}{
		{"configured", "owner@home.test", "ops@home.test", "owner@home.test", true},
		{"placeholder uses fallback", PlaceholderRecipient, "ops@home.test", "ops@home.test", true},
		{"empty uses fallback", "", "ops@home.test", "ops@home.test", true},
		{"nobody", PlaceholderRecipient, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Recipient = tt.recipient
			cfg.FallbackRecipient = tt.fallback
			got, ok := cfg.ReportRecipient()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ReportRecipient() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}

	var nilCfg *Config
	if _, ok := nilCfg.ReportRecipient(); ok {
		t.Error("nil config should have no recipient")
	}
}

func TestLocation(t *testing.T) {
	cfg := validConfig()
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}
