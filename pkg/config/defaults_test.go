package config

import "testing"

func TestApplyDefaults_Empty(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Logging.Level != "INFO" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stdout" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Logging.MaxSizeMB != 100 || cfg.Logging.MaxBackups != 3 || cfg.Logging.MaxAgeDays != 28 {
		t.Errorf("Unexpected rotation defaults: %+v", cfg.Logging)
	}

	for name, store := range map[string]StoreConfig{"source": cfg.Source, "destination": cfg.Destination} {
		if store.Type != "filesystem" {
			t.Errorf("%s: expected type 'filesystem', got %q", name, store.Type)
		}
		if store.Filesystem == nil || store.Memory == nil || store.S3 == nil || store.Badger == nil {
			t.Errorf("%s: expected all backend sections initialized", name)
		}
		if store.S3["region"] != DefaultS3Region {
			t.Errorf("%s: expected default region, got %v", name, store.S3["region"])
		}
	}

	if cfg.Transfer.DigestAlgorithm != "sha256" {
		t.Errorf("Expected sha256, got %q", cfg.Transfer.DigestAlgorithm)
	}
	if cfg.Transfer.CompareChunkSize != 4096 {
		t.Errorf("Expected compare chunk size 4096, got %d", cfg.Transfer.CompareChunkSize)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Logging: LoggingConfig{Level: "warn", Format: "json", Output: "/var/log/dittosync.log"},
		Source: StoreConfig{
			Type: "S3",
			S3:   map[string]any{"region": "eu-west-1", "bucket": "b"},
		},
		Transfer: TransferConfig{DigestBlockSize: 1024},
	}
	ApplyDefaults(&cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected normalized 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "/var/log/dittosync.log" {
		t.Errorf("Output was overwritten: %q", cfg.Logging.Output)
	}
	if cfg.Source.Type != "s3" {
		t.Errorf("Expected lowercased 's3', got %q", cfg.Source.Type)
	}
	if cfg.Source.S3["region"] != "eu-west-1" {
		t.Errorf("Region was overwritten: %v", cfg.Source.S3["region"])
	}
	if cfg.Transfer.DigestBlockSize != 1024 {
		t.Errorf("Digest block size was overwritten: %d", cfg.Transfer.DigestBlockSize)
	}
}

func TestNormalizeBackend(t *testing.T) {
	tests := map[string]string{
		"0":            "filesystem",
		" Filesystem ": "filesystem",
		"MEMORY":       "memory",
		"badger":       "badger",
		"7":            "7",
	}
	for in, want := range tests {
		if got := NormalizeBackend(in); got != want {
			t.Errorf("NormalizeBackend(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Source.Badger["db_path"] == "" {
		t.Error("Expected a sample badger db_path in the default config")
	}
}
