// Package config provides configuration types and defaults for registrar.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration options for registrar.
type Config struct {
	// Listen is the HTTP listen address for the intake API.
	Listen   string         `mapstructure:"listen"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Mail     MailConfig     `mapstructure:"mail"`
	Referral ReferralConfig `mapstructure:"referral"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	// Path is the SQLite database file. Parent directories are created
	// on first open.
	Path string `mapstructure:"path"`
}

// StorageConfig holds object storage settings for payment proofs.
type StorageConfig struct {
	// URL is the storage service base URL (e.g. https://xyz.supabase.co/storage/v1).
	URL string `mapstructure:"url"`
	// ServiceKey authenticates uploads. Bound to REGISTRAR_STORAGE_KEY.
	ServiceKey string `mapstructure:"service_key"`
	// Bucket is the payment proof bucket name.
	Bucket string `mapstructure:"bucket"`
	// Timeout bounds a single storage request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// MailConfig holds notification email settings.
type MailConfig struct {
	// Enabled turns notification dispatch on. When false a no-op
	// notifier is used and registrations still commit normally.
	Enabled bool `mapstructure:"enabled"`
	// URL is the mail API base URL.
	URL string `mapstructure:"url"`
	// APIKey authenticates mail requests. Bound to REGISTRAR_MAIL_KEY.
	APIKey string `mapstructure:"api_key"`
	// From is the sender address for registration email.
	From string `mapstructure:"from"`
}

// ReferralConfig holds referral registry and resolver settings.
type ReferralConfig struct {
	// File is the YAML registry of referral codes. When empty the
	// compiled-in registry is used.
	File string `mapstructure:"file"`
	// MaxSuggestions caps "did you mean" candidates per invalid code.
	MaxSuggestions int `mapstructure:"max_suggestions"`
	// MaxDistance is the Levenshtein distance cutoff for suggestions.
	MaxDistance int `mapstructure:"max_distance"`
	// AutoReload watches the registry file and swaps the snapshot on change.
	AutoReload bool `mapstructure:"auto_reload"`
	// ReloadDebounce coalesces bursts of file events into one reload.
	ReloadDebounce time.Duration `mapstructure:"reload_debounce"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Exporter selects the export backend: "none", "file", "stdout", "otlp".
	Exporter string `mapstructure:"exporter"`
	// FilePath is the output file for the "file" exporter.
	FilePath string `mapstructure:"file_path"`
	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	// SampleRate controls the fraction of traces sampled (1.0 = all).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Listen: "localhost:8095",
		Database: DatabaseConfig{
			Path: ".registrar/registrar.db",
		},
		Storage: StorageConfig{
			Bucket:  "payment-proofs",
			Timeout: 30 * time.Second,
		},
		Mail: MailConfig{
			Enabled: false,
			URL:     "https://api.resend.com",
			From:    "registration@vofmun.org",
		},
		Referral: ReferralConfig{
			MaxSuggestions: 2,
			MaxDistance:    2,
			AutoReload:     false,
			ReloadDebounce: time.Second,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "stdout",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks configuration invariants that viper cannot express.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Referral.MaxSuggestions < 0 {
		return fmt.Errorf("referral.max_suggestions must not be negative")
	}
	if c.Referral.MaxDistance < 1 {
		return fmt.Errorf("referral.max_distance must be at least 1")
	}
	return nil
}

// WriteDefaultConfig writes a commented default config file to path,
// creating parent directories as needed.
func WriteDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0644)
}

const defaultConfigYAML = `# registrar configuration
listen: localhost:8095

database:
  path: .registrar/registrar.db

storage:
  # url: https://xyz.supabase.co/storage/v1
  bucket: payment-proofs
  timeout: 30s

mail:
  enabled: false
  url: https://api.resend.com
  from: registration@vofmun.org

referral:
  # file: referral_codes.yaml
  max_suggestions: 2
  max_distance: 2
  auto_reload: false
  reload_debounce: 1s

tracing:
  enabled: false
  exporter: stdout
`
