package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "TRACE" },
			wantErr: "Logging.Level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "Logging.Format",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Destination.Type = "ftp" },
			wantErr: "Destination.Type",
		},
		{
			name:    "unknown digest algorithm",
			mutate:  func(c *Config) { c.Transfer.DigestAlgorithm = "crc32" },
			wantErr: "Transfer.DigestAlgorithm",
		},
		{
			name:    "negative chunk size",
			mutate:  func(c *Config) { c.Transfer.CopyChunkSize = -1 },
			wantErr: "Transfer.CopyChunkSize",
		},
		{
			name:    "negative bandwidth limit",
			mutate:  func(c *Config) { c.Transfer.MaxBytesPerSecond = -1 },
			wantErr: "Transfer.MaxBytesPerSecond",
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Source.Type = "s3"
			},
			wantErr: "source.s3.bucket",
		},
		{
			name: "s3 with bucket",
			mutate: func(c *Config) {
				c.Source.Type = "s3"
				c.Source.S3["bucket"] = "photos"
			},
		},
		{
			name: "s3 numeric bucket",
			mutate: func(c *Config) {
				c.Source.Type = "s3"
				c.Source.S3["bucket"] = 2024
			},
		},
		{
			name: "badger without path",
			mutate: func(c *Config) {
				c.Destination.Type = "badger"
			},
			wantErr: "destination.badger.db_path",
		},
		{
			name: "badger in memory",
			mutate: func(c *Config) {
				c.Destination.Type = "badger"
				c.Destination.Badger["in_memory"] = true
			},
		},
		{
			name: "badger in memory from string",
			mutate: func(c *Config) {
				c.Destination.Type = "badger"
				c.Destination.Badger["in_memory"] = "true"
			},
		},
		{
			name: "badger in memory false from string",
			mutate: func(c *Config) {
				c.Destination.Type = "badger"
				c.Destination.Badger["in_memory"] = "false"
			},
			wantErr: "destination.badger.db_path",
		},
		{
			name: "badger in memory not a bool",
			mutate: func(c *Config) {
				c.Destination.Type = "badger"
				c.Destination.Badger["in_memory"] = "sometimes"
			},
			wantErr: "destination.badger",
		},
		{
			name: "md5 digest algorithm",
			mutate: func(c *Config) {
				c.Transfer.DigestAlgorithm = "md5"
			},
		},
		{
			name: "metrics port while disabled",
			mutate: func(c *Config) {
				c.Metrics.Port = 9090
			},
			wantErr: "metrics.port",
		},
		{
			name: "metrics port out of range",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 70000
			},
			wantErr: "Metrics.Port",
		},
		{
			name: "invalid pushgateway url",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.PushgatewayURL = "not a url"
			},
			wantErr: "Metrics.PushgatewayURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
