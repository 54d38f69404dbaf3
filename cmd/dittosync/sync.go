package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/config"
	"github.com/marmos91/dittosync/pkg/reconcile"
)

// metricsShutdownTimeout bounds the final metrics export.
const metricsShutdownTimeout = 10 * time.Second

// runSync loads the configuration, opens both roots and reconciles
// destination to match source.
func runSync(ctx context.Context, out io.Writer, flags rootFlags, source, destination string) (err error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	if err := logger.Configure(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	hashFunc, err := reconcile.HashFuncFor(cfg.Transfer.DigestAlgorithm)
	if err != nil {
		return err
	}

	metricsResult, err := config.InitializeMetrics(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		finishCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if finishErr := metricsResult.Finish(finishCtx); finishErr != nil {
			logger.Warn("Metrics export failed: %v", finishErr)
		}
	}()

	backends := config.NewBackends()
	defer func() {
		err = errors.Join(err, backends.Close())
	}()

	sourceDir, err := backends.CreateDirectory(ctx, &cfg.Source, source)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	destinationDir, err := backends.CreateDirectory(ctx, &cfg.Destination, destination)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	sourceDir = metricsResult.Instrument(sourceDir, "source", cfg.Source.Type)
	destinationDir = metricsResult.Instrument(destinationDir, "destination", cfg.Destination.Type)

	logger.Info("Source: %s (%s), destination: %s (%s), digest: %s",
		source, cfg.Source.Type, destination, cfg.Destination.Type, cfg.Transfer.DigestAlgorithm)

	syncer := reconcile.New(reconcile.Options{
		HashFunc:          hashFunc,
		DigestBlockSize:   cfg.Transfer.DigestBlockSize,
		CompareChunkSize:  cfg.Transfer.CompareChunkSize,
		CopyChunkSize:     cfg.Transfer.CopyChunkSize,
		MaxBytesPerSecond: cfg.Transfer.MaxBytesPerSecond,
		Metrics:           metricsResult.Sync,
	})

	report, err := syncer.Sync(ctx, sourceDir, destinationDir)
	if err != nil {
		return fmt.Errorf("sync %s: %w", report.RunID, err)
	}

	_, _ = fmt.Fprintln(out, report)
	return nil
}

// loadConfig loads the config file and applies the command-line overrides.
func loadConfig(flags rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	overridden := false
	if flags.SourceBackend != "" {
		cfg.Source.Type = config.NormalizeBackend(flags.SourceBackend)
		overridden = true
	}
	if flags.DestinationBackend != "" {
		cfg.Destination.Type = config.NormalizeBackend(flags.DestinationBackend)
		overridden = true
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
		overridden = true
	}

	if overridden {
		config.ApplyDefaults(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}
	return cfg, nil
}
