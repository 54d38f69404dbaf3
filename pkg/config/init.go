package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# DittoSync Configuration File
#
# Reconciles a destination directory to match a source directory.
# Values can be overridden with DITTOSYNC_* environment variables,
# e.g. DITTOSYNC_LOGGING_LEVEL=DEBUG or DITTOSYNC_DESTINATION_TYPE=s3.
`

// sectionComments are attached above the top-level keys of the generated file.
var sectionComments = map[string]string{
	"logging": "Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json),\n" +
		"output (stdout, stderr or a file path, rotated by size)",
	"source": "Source backend. Never modified by a run.\n" +
		"type: filesystem, memory, s3 or badger. Only the matching section is used.",
	"destination": "Destination backend, reconciled to match the source.",
	"transfer": "Transfer tuning. digest_algorithm: sha256, blake3 or md5. Sizes are in bytes; max_bytes_per_second 0 means unlimited.",
	"metrics": "Prometheus metrics. port serves /metrics during the run (0 = off);\n" +
		"textfile and pushgateway_url receive the metrics when the run ends.",
}

// InitConfig writes a sample configuration file to the default location.
//
// Returns the path written. Fails with an "already exists" error unless
// force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg as YAML with a file header and a
// comment above each top-level section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	// Content holds alternating key and value nodes.
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if comment, ok := sectionComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.WriteString("\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return buf.String(), nil
}
