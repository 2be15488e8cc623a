package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/dora/internal/logger"
	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/storage"
	"gopkg.in/yaml.v3"
)

// StorageConfig selects where drafts and submissions are persisted.
type StorageConfig struct {
	// Backend is "sqlite" or "file"
	Backend string `yaml:"backend"`

	// Path is the database file (sqlite) or root directory (file)
	Path string `yaml:"path"`
}

// DeliveryConfig controls how finished reports leave the process.
type DeliveryConfig struct {
	// Enabled turns the webhook sink on; reports are always written to ReportDir
	Enabled bool `yaml:"enabled"`

	// WebhookURL receives the report as a JSON POST; empty disables the webhook sink
	WebhookURL string `yaml:"webhook_url"`

	// Timeout bounds a single webhook call
	Timeout time.Duration `yaml:"timeout"`

	// ReportDir is where rendered reports are written
	ReportDir string `yaml:"report_dir"`
}

// ChartConfig sizes the score chart.
type ChartConfig struct {
	Width     int `yaml:"width"`
	BarHeight int `yaml:"bar_height"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is written after every submission; empty disables the export
	Textfile string `yaml:"textfile"`
}

// Config represents dora configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// Language is the default questionnaire language (es, pt)
	Language string `yaml:"language"`

	Storage  StorageConfig  `yaml:"storage"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Chart    ChartConfig    `yaml:"chart"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogDir:   ".dora/logs",
		Language: string(models.LanguageES),
		Storage: StorageConfig{
			Backend: storage.BackendSQLite,
			Path:    ".dora/dora.db",
		},
		Delivery: DeliveryConfig{
			Enabled:   true,
			Timeout:   15 * time.Second,
			ReportDir: ".dora/reports",
		},
		Chart: ChartConfig{
			Width:     640,
			BarHeight: 28,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations arrive as strings ("30s") and need their own parse step.
	type yamlDelivery struct {
		Enabled    bool   `yaml:"enabled"`
		WebhookURL string `yaml:"webhook_url"`
		Timeout    string `yaml:"timeout"`
		ReportDir  string `yaml:"report_dir"`
	}
	type yamlConfig struct {
		LogLevel string        `yaml:"log_level"`
		LogDir   string        `yaml:"log_dir"`
		Language string        `yaml:"language"`
		Storage  StorageConfig `yaml:"storage"`
		Delivery yamlDelivery  `yaml:"delivery"`
		Chart    ChartConfig   `yaml:"chart"`
		Metrics  MetricsConfig `yaml:"metrics"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.Language != "" {
		cfg.Language = yamlCfg.Language
	}
	if yamlCfg.Storage.Backend != "" {
		cfg.Storage.Backend = yamlCfg.Storage.Backend
	}
	if yamlCfg.Storage.Path != "" {
		cfg.Storage.Path = yamlCfg.Storage.Path
	}
	if yamlCfg.Delivery.WebhookURL != "" {
		cfg.Delivery.WebhookURL = yamlCfg.Delivery.WebhookURL
	}
	if yamlCfg.Delivery.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Delivery.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid delivery.timeout format %q: %w", yamlCfg.Delivery.Timeout, err)
		}
		cfg.Delivery.Timeout = timeout
	}
	if yamlCfg.Delivery.ReportDir != "" {
		cfg.Delivery.ReportDir = yamlCfg.Delivery.ReportDir
	}
	if yamlCfg.Chart.Width != 0 {
		cfg.Chart.Width = yamlCfg.Chart.Width
	}
	if yamlCfg.Chart.BarHeight != 0 {
		cfg.Chart.BarHeight = yamlCfg.Chart.BarHeight
	}
	if yamlCfg.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = yamlCfg.Metrics.Textfile
	}

	// delivery.enabled defaults to true, so only an explicit key may turn it off.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, ok := rawMap["delivery"].(map[string]interface{}); ok {
			if _, exists := section["enabled"]; exists {
				cfg.Delivery.Enabled = yamlCfg.Delivery.Enabled
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .dora/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".dora", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel, logDir, language, storageBackend, storagePath *string) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if language != nil {
		c.Language = *language
	}
	if storageBackend != nil {
		c.Storage.Backend = *storageBackend
	}
	if storagePath != nil {
		c.Storage.Path = *storagePath
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if _, err := models.ParseLanguage(c.Language); err != nil {
		return fmt.Errorf("invalid language: %w", err)
	}

	switch strings.ToLower(c.Storage.Backend) {
	case storage.BackendSQLite, storage.BackendFile:
	default:
		return fmt.Errorf("invalid storage.backend %q, must be one of: %s, %s",
			c.Storage.Backend, storage.BackendSQLite, storage.BackendFile)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path cannot be empty")
	}

	if c.Delivery.Timeout < 0 {
		return fmt.Errorf("delivery.timeout must be >= 0, got %v", c.Delivery.Timeout)
	}
	if c.Delivery.WebhookURL != "" {
		u, err := url.Parse(c.Delivery.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("delivery.webhook_url must be an absolute http(s) URL, got %q", c.Delivery.WebhookURL)
		}
	}
	if c.Delivery.ReportDir == "" {
		return fmt.Errorf("delivery.report_dir cannot be empty")
	}

	if c.Chart.Width <= 0 {
		return fmt.Errorf("chart.width must be > 0, got %d", c.Chart.Width)
	}
	if c.Chart.BarHeight <= 0 {
		return fmt.Errorf("chart.bar_height must be > 0, got %d", c.Chart.BarHeight)
	}

	return nil
}
