package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogDir != ".dora/logs" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, ".dora/logs")
	}
	if cfg.Language != "es" {
		t.Errorf("Language = %q, want %q", cfg.Language, "es")
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.Path != ".dora/dora.db" {
		t.Errorf("Storage = %+v, want sqlite at .dora/dora.db", cfg.Storage)
	}
	if !cfg.Delivery.Enabled {
		t.Error("Delivery.Enabled = false, want true")
	}
	if cfg.Delivery.Timeout != 15*time.Second {
		t.Errorf("Delivery.Timeout = %v, want 15s", cfg.Delivery.Timeout)
	}
	if cfg.Chart.Width != 640 || cfg.Chart.BarHeight != 28 {
		t.Errorf("Chart = %+v, want 640x28", cfg.Chart)
	}
	if cfg.Metrics.Textfile != "" {
		t.Errorf("Metrics.Textfile = %q, want empty", cfg.Metrics.Textfile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

// TestLoadConfigValidFile tests loading a fully populated YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	path := writeConfig(t, `log_level: debug
log_dir: /tmp/dora-logs
language: pt
storage:
  backend: file
  path: /tmp/dora-store
delivery:
  enabled: false
  webhook_url: https://hooks.example.com/dora
  timeout: 30s
  report_dir: /tmp/reports
chart:
  width: 800
  bar_height: 32
metrics:
  textfile: /tmp/dora.prom
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.LogDir != "/tmp/dora-logs" {
		t.Errorf("LogDir = %q, want /tmp/dora-logs", cfg.LogDir)
	}
	if cfg.Language != "pt" {
		t.Errorf("Language = %q, want pt", cfg.Language)
	}
	if cfg.Storage.Backend != "file" || cfg.Storage.Path != "/tmp/dora-store" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Delivery.Enabled {
		t.Error("Delivery.Enabled = true, want false")
	}
	if cfg.Delivery.WebhookURL != "https://hooks.example.com/dora" {
		t.Errorf("Delivery.WebhookURL = %q", cfg.Delivery.WebhookURL)
	}
	if cfg.Delivery.Timeout != 30*time.Second {
		t.Errorf("Delivery.Timeout = %v, want 30s", cfg.Delivery.Timeout)
	}
	if cfg.Delivery.ReportDir != "/tmp/reports" {
		t.Errorf("Delivery.ReportDir = %q", cfg.Delivery.ReportDir)
	}
	if cfg.Chart.Width != 800 || cfg.Chart.BarHeight != 32 {
		t.Errorf("Chart = %+v, want 800x32", cfg.Chart)
	}
	if cfg.Metrics.Textfile != "/tmp/dora.prom" {
		t.Errorf("Metrics.Textfile = %q", cfg.Metrics.Textfile)
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if cfg.LogDir != ".dora/logs" {
		t.Errorf("LogDir = %q, want default", cfg.LogDir)
	}
}

// TestLoadConfigInvalidYAML tests error handling for malformed YAML
func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "log_level: [unclosed\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() expected error for invalid YAML, got nil")
	}
}

// TestLoadConfigPartialValues tests that unset keys keep their defaults
func TestLoadConfigPartialValues(t *testing.T) {
	path := writeConfig(t, `language: pt
delivery:
  webhook_url: http://localhost:9000/hook
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Language != "pt" {
		t.Errorf("Language = %q, want pt", cfg.Language)
	}
	if !cfg.Delivery.Enabled {
		t.Error("Delivery.Enabled should stay true when the key is absent")
	}
	if cfg.Delivery.Timeout != 15*time.Second {
		t.Errorf("Delivery.Timeout = %v, want default 15s", cfg.Delivery.Timeout)
	}
	if cfg.Delivery.ReportDir != ".dora/reports" {
		t.Errorf("Delivery.ReportDir = %q, want default", cfg.Delivery.ReportDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
}

// TestTimeoutParsing tests delivery.timeout duration handling
func TestTimeoutParsing(t *testing.T) {
	tests := []struct {
		name    string
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "45s", 45 * time.Second, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"mixed", "1m30s", 90 * time.Second, false},
		{"bare number", "30", 0, true},
		{"garbage", "soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "delivery:\n  timeout: "+tt.timeout+"\n")
			cfg, err := LoadConfig(path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadConfig() expected error for timeout %q", tt.timeout)
				}
				if !strings.Contains(err.Error(), "delivery.timeout") {
					t.Errorf("error %q should name delivery.timeout", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if cfg.Delivery.Timeout != tt.want {
				t.Errorf("Delivery.Timeout = %v, want %v", cfg.Delivery.Timeout, tt.want)
			}
		})
	}
}

// TestEmptyConfigFile tests that an empty file yields defaults
func TestEmptyConfigFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("LoadConfig(empty) = %+v, want defaults", cfg)
	}
}

// TestLoadConfigFromDir tests loading from .dora/config.yaml
func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".dora"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".dora", "config.yaml"), []byte("log_level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromDir(dir)
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

// TestLoadConfigFromDirNotExists tests defaults when .dora is missing
func TestLoadConfigFromDirNotExists(t *testing.T) {
	cfg, err := LoadConfigFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigFromDir() error = %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

// TestMergeWithFlags tests that non-nil flags override config values
func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	level, dir, lang := "trace", "/var/log/dora", "pt"
	backend, path := "file", "/srv/dora"

	cfg.MergeWithFlags(&level, &dir, &lang, &backend, &path)

	if cfg.LogLevel != level || cfg.LogDir != dir || cfg.Language != lang {
		t.Errorf("logging/language not merged: %+v", cfg)
	}
	if cfg.Storage.Backend != backend || cfg.Storage.Path != path {
		t.Errorf("Storage = %+v, want %s at %s", cfg.Storage, backend, path)
	}
}

// TestMergeWithFlagsNil tests that nil flags leave config untouched
func TestMergeWithFlagsNil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeWithFlags(nil, nil, nil, nil, nil)

	if *cfg != *DefaultConfig() {
		t.Errorf("MergeWithFlags(nil...) changed config: %+v", cfg)
	}
}

// TestMergeWithFlagsZeroValues tests that explicit empty strings still override
func TestMergeWithFlagsZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	empty := ""
	cfg.MergeWithFlags(nil, &empty, nil, nil, nil)

	if cfg.LogDir != "" {
		t.Errorf("LogDir = %q, want empty", cfg.LogDir)
	}
}

// TestConfigValidation tests Validate across invalid values
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"uppercase level", func(c *Config) { c.LogLevel = "DEBUG" }, ""},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"bad language", func(c *Config) { c.Language = "fr" }, "language"},
		{"uppercase language", func(c *Config) { c.Language = "PT" }, ""},
		{"bad backend", func(c *Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"empty storage path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"negative timeout", func(c *Config) { c.Delivery.Timeout = -time.Second }, "delivery.timeout"},
		{"relative webhook", func(c *Config) { c.Delivery.WebhookURL = "/hook" }, "webhook_url"},
		{"ftp webhook", func(c *Config) { c.Delivery.WebhookURL = "ftp://example.com/x" }, "webhook_url"},
		{"https webhook", func(c *Config) { c.Delivery.WebhookURL = "https://example.com/x" }, ""},
		{"no report dir", func(c *Config) { c.Delivery.ReportDir = "" }, "report_dir"},
		{"no report dir when disabled", func(c *Config) {
			c.Delivery.Enabled = false
			c.Delivery.ReportDir = ""
		}, "report_dir"},
		{"webhook set but disabled", func(c *Config) {
			c.Delivery.Enabled = false
			c.Delivery.WebhookURL = "https://example.com/x"
		}, ""},
		{"zero width", func(c *Config) { c.Chart.Width = 0 }, "chart.width"},
		{"negative bar height", func(c *Config) { c.Chart.BarHeight = -1 }, "chart.bar_height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// TestGetDoraHomeIn tests the .dora default and directory creation
func TestGetDoraHomeIn(t *testing.T) {
	t.Setenv(HomeEnv, "")
	dir := t.TempDir()

	home, err := GetDoraHomeIn(dir)
	if err != nil {
		t.Fatalf("GetDoraHomeIn() error = %v", err)
	}
	if want := filepath.Join(dir, ".dora"); home != want {
		t.Errorf("GetDoraHomeIn() = %q, want %q", home, want)
	}
	if info, err := os.Stat(home); err != nil || !info.IsDir() {
		t.Errorf("home directory not created: %q", home)
	}
}

// TestGetDoraHomeEnvPrecedence tests DORA_HOME wins over the default
func TestGetDoraHomeEnvPrecedence(t *testing.T) {
	envHome := filepath.Join(t.TempDir(), "custom")
	t.Setenv(HomeEnv, envHome)

	home, err := GetDoraHomeIn(t.TempDir())
	if err != nil {
		t.Fatalf("GetDoraHomeIn() error = %v", err)
	}
	if home != envHome {
		t.Errorf("GetDoraHomeIn() = %q, want %q", home, envHome)
	}
	if _, err := os.Stat(envHome); err != nil {
		t.Errorf("DORA_HOME directory not created: %v", err)
	}
}

// TestLoadExplicitPath tests Load with a --config path
func TestLoadExplicitPath(t *testing.T) {
	t.Setenv(HomeEnv, "")
	path := writeConfig(t, "log_level: error\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with a missing explicit path should fail")
	}
}

// TestLoadRebasesOntoDoraHome tests that default paths move under DORA_HOME
func TestLoadRebasesOntoDoraHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)
	cfgFile := "storage:\n  path: .dora/other.db\nmetrics:\n  textfile: /abs/dora.prom\n"
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(cfgFile), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := filepath.Join(home, "logs"); cfg.LogDir != want {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, want)
	}
	if want := filepath.Join(home, "other.db"); cfg.Storage.Path != want {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, want)
	}
	if want := filepath.Join(home, "reports"); cfg.Delivery.ReportDir != want {
		t.Errorf("Delivery.ReportDir = %q, want %q", cfg.Delivery.ReportDir, want)
	}
	if cfg.Metrics.Textfile != "/abs/dora.prom" {
		t.Errorf("absolute Metrics.Textfile rewritten to %q", cfg.Metrics.Textfile)
	}
}
