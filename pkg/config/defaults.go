package config

import (
	"strings"

	"github.com/marmos91/dittosync/pkg/reconcile"
)

// Default values applied by ApplyDefaults.
const (
	DefaultBackend     = "filesystem"
	DefaultMetricsPort = 0
	DefaultS3Region    = "us-east-1"
	DefaultMaxRetries  = 10
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend-specific defaults are handled by the factories
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStoreDefaults(&cfg.Source)
	applyStoreDefaults(&cfg.Destination)
	applyTransferDefaults(&cfg.Transfer)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 28
	}
}

// applyStoreDefaults sets backend defaults.
func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Type == "" {
		cfg.Type = DefaultBackend
	}
	cfg.Type = NormalizeBackend(cfg.Type)

	// Initialize maps if nil
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	if _, ok := cfg.S3["region"]; !ok {
		cfg.S3["region"] = DefaultS3Region
	}
	if _, ok := cfg.S3["max_retries"]; !ok {
		cfg.S3["max_retries"] = DefaultMaxRetries
	}
}

// applyTransferDefaults sets transfer defaults.
func applyTransferDefaults(cfg *TransferConfig) {
	if cfg.DigestAlgorithm == "" {
		cfg.DigestAlgorithm = reconcile.AlgorithmSHA256
	}
	cfg.DigestAlgorithm = strings.ToLower(cfg.DigestAlgorithm)

	if cfg.DigestBlockSize == 0 {
		cfg.DigestBlockSize = reconcile.DefaultDigestBlockSize
	}
	if cfg.CompareChunkSize == 0 {
		cfg.CompareChunkSize = reconcile.DefaultCompareChunkSize
	}
	if cfg.CopyChunkSize == 0 {
		cfg.CopyChunkSize = reconcile.DefaultCopyChunkSize
	}
}

// legacyBackends maps the integer backend indexes accepted by earlier
// releases to backend names. Only the local filesystem ever had one.
var legacyBackends = map[string]string{
	"0": "filesystem",
}

// NormalizeBackend lowercases a backend name and resolves legacy integer
// indexes ("0" = filesystem). Unknown values are returned lowercased so
// validation can reject them.
func NormalizeBackend(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := legacyBackends[name]; ok {
		return mapped
	}
	return name
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Source: StoreConfig{
			Badger: map[string]any{"db_path": "/var/lib/dittosync/badger"},
			S3: map[string]any{
				"bucket": "",
				"prefix": "",
			},
		},
		Destination: StoreConfig{
			Badger: map[string]any{"db_path": "/var/lib/dittosync/badger"},
			S3: map[string]any{
				"bucket": "",
				"prefix": "",
			},
		},
		Metrics: MetricsConfig{
			Port: DefaultMetricsPort,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
