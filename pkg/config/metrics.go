package config

import (
	"context"
	"errors"
	"os"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/metrics"
	"github.com/marmos91/dittosync/pkg/reconcile"
	"github.com/marmos91/dittosync/pkg/storage"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled
	// or metrics.port is 0)
	Server *metrics.Server

	// Sync is the metrics collector for the reconciliation engine (nil if
	// disabled, which the engine treats as no-op)
	Sync reconcile.Metrics

	cfg MetricsConfig
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates and starts the metrics HTTP server when a port is configured
//   - Creates Prometheus-backed metrics instances for the engine
//
// If metrics are disabled every component is nil, which callers treat as
// no-op.
func InitializeMetrics(cfg *Config) (*MetricsResult, error) {
	result := &MetricsResult{cfg: cfg.Metrics}
	if !cfg.Metrics.Enabled {
		return result, nil
	}

	metrics.InitRegistry()
	result.Sync = metrics.NewSyncMetrics()

	if cfg.Metrics.Port != 0 {
		server, err := metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		if err != nil {
			return nil, err
		}
		server.Start()
		result.Server = server
	}

	return result, nil
}

// Instrument wraps dir with Prometheus storage metrics labelled role and
// backend. Returns dir unchanged when metrics are disabled.
func (r *MetricsResult) Instrument(dir storage.Directory, role, backend string) storage.Directory {
	if !r.cfg.Enabled {
		return dir
	}
	return storage.Instrument(dir, metrics.NewStorageMetrics(role, backend))
}

// Finish exports the collected metrics (textfile, Pushgateway) and stops the
// HTTP server. Export failures are joined; every step is attempted.
func (r *MetricsResult) Finish(ctx context.Context) error {
	if !r.cfg.Enabled {
		return nil
	}

	var errs []error
	if r.cfg.Textfile != "" {
		if err := metrics.WriteTextfile(r.cfg.Textfile); err != nil {
			errs = append(errs, err)
		} else {
			logger.Debug("Metrics written to %s", r.cfg.Textfile)
		}
	}

	if r.cfg.PushgatewayURL != "" {
		host, _ := os.Hostname()
		if err := metrics.Push(ctx, r.cfg.PushgatewayURL, host); err != nil {
			errs = append(errs, err)
		} else {
			logger.Debug("Metrics pushed to %s", r.cfg.PushgatewayURL)
		}
	}

	if r.Server != nil {
		if err := r.Server.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
