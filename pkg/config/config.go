package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete DittoSync configuration.
//
// This structure captures all configurable aspects of a sync run:
//   - Logging configuration
//   - Source and destination backend selection (backend-specific sections)
//   - Transfer tuning (digest algorithm, chunk sizes)
//   - Metrics export
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOSYNC_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Backend Configuration Pattern:
// Each backend defines its own configuration type and factory function.
// StoreConfig contains type-specific sections (e.g., source.s3, source.badger)
// and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Source is the backend the run reads from. It is never modified.
	Source StoreConfig `mapstructure:"source" yaml:"source"`

	// Destination is the backend reconciled to match the source.
	Destination StoreConfig `mapstructure:"destination" yaml:"destination"`

	// Transfer tunes hashing, comparison and copying
	Transfer TransferConfig `mapstructure:"transfer" yaml:"transfer"`

	// Metrics controls Prometheus metrics export
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`

	// Rotation settings, only used when Output is a file path
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days" validate:"gte=0"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// StoreConfig specifies one side of the sync.
//
// The Type field determines which backend is used.
// Only the corresponding type-specific configuration section is used.
type StoreConfig struct {
	// Type specifies which backend to use
	// Valid values: filesystem, memory, s3, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem memory s3 badger"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`
}

// TransferConfig tunes the reconciliation engine.
type TransferConfig struct {
	// DigestAlgorithm selects the content hash
	// Valid values: sha256, blake3, md5
	DigestAlgorithm string `mapstructure:"digest_algorithm" yaml:"digest_algorithm" validate:"required,oneof=sha256 blake3 md5"`

	// DigestBlockSize is the read size used while hashing, in bytes
	DigestBlockSize int `mapstructure:"digest_block_size" yaml:"digest_block_size" validate:"gt=0"`

	// CompareChunkSize is the read size used by the byte-for-byte check
	CompareChunkSize int `mapstructure:"compare_chunk_size" yaml:"compare_chunk_size" validate:"gt=0"`

	// CopyChunkSize is the read size used when copying into the destination
	CopyChunkSize int `mapstructure:"copy_chunk_size" yaml:"copy_chunk_size" validate:"gt=0"`

	// MaxBytesPerSecond caps the copy rate (0 = unlimited)
	MaxBytesPerSecond int64 `mapstructure:"max_bytes_per_second" yaml:"max_bytes_per_second" validate:"gte=0"`
}

// MetricsConfig controls Prometheus metrics export.
type MetricsConfig struct {
	// Enabled turns metrics collection on
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port serves /metrics for the duration of the run (0 = no HTTP server)
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`

	// Textfile is written when the run ends, for node_exporter's textfile collector
	Textfile string `mapstructure:"textfile" yaml:"textfile"`

	// PushgatewayURL receives the metrics when the run ends
	PushgatewayURL string `mapstructure:"pushgateway_url" yaml:"pushgateway_url" validate:"omitempty,url"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOSYNC_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTOSYNC_ prefix and underscores
	// Example: DITTOSYNC_DESTINATION_TYPE=s3
	v.SetEnvPrefix("DITTOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"source.type", "destination.type",
		"transfer.digest_algorithm", "transfer.max_bytes_per_second",
		"metrics.enabled", "metrics.port", "metrics.textfile", "metrics.pushgateway_url",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittosync/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
//
// A missing file at the default location is not an error; a missing file
// that was named explicitly is.
func readConfigFile(v *viper.Viper, configPath string) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && configPath == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittosync")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittosync")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
