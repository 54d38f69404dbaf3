package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	storageBadger "github.com/marmos91/dittosync/pkg/storage/badger"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that depend
// on the selected backend type.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if err := validateStore("source", &cfg.Source); err != nil {
		return err
	}
	if err := validateStore("destination", &cfg.Destination); err != nil {
		return err
	}

	if cfg.Metrics.Port != 0 && !cfg.Metrics.Enabled {
		return fmt.Errorf("metrics.port: set but metrics.enabled is false")
	}

	return nil
}

// validateStore checks the section matching the selected backend type.
//
// Sections are decoded the same way the factories decode them, so values
// arriving as strings from environment overrides validate like typed ones.
func validateStore(side string, cfg *StoreConfig) error {
	switch cfg.Type {
	case "s3":
		var opts S3Options
		if err := decodeOptions(cfg.S3, &opts); err != nil {
			return fmt.Errorf("%s.s3: %w", side, err)
		}
		if opts.Bucket == "" {
			return fmt.Errorf("%s.s3.bucket: required when type is s3", side)
		}
	case "badger":
		var opts storageBadger.StoreConfig
		if err := decodeOptions(cfg.Badger, &opts); err != nil {
			return fmt.Errorf("%s.badger: %w", side, err)
		}
		if opts.DBPath == "" && !opts.InMemory {
			return fmt.Errorf("%s.badger.db_path: required unless in_memory is true", side)
		}
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
