// Package metrics provides Prometheus metrics collection for DittoSync.
//
// All metrics are optional - if not initialized, constructors return nil and
// callers fall back to no-op implementations. This allows DittoSync to run
// with or without metrics collection enabled.
//
// Usage:
//
//	// Initialize global registry (typically in main.go)
//	metrics.InitRegistry()
//
//	// Create metrics instances for components
//	syncMetrics := metrics.NewSyncMetrics()
//	sourceMetrics := metrics.NewStorageMetrics("source", "s3")
//
//	// Export once the run is over
//	metrics.WriteTextfile("/var/lib/node_exporter/dittosync.prom")
//
// A one-shot CLI run is usually too short to be scraped, so besides the
// HTTP Server the registry can be written to a node_exporter textfile or
// pushed to a Pushgateway when the run ends.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "dittosync"

var (
	// registry is the global Prometheus registry for all DittoSync metrics
	// Protected by registryOnce for write-once, read-many pattern
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// This must be called before creating any metrics instances. It's safe to call
// multiple times - subsequent calls are ignored.
//
// If not called, GetRegistry() will return nil and all metrics constructors
// will return nil.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the global Prometheus registry.
//
// Returns nil if InitRegistry() has not been called, indicating metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if metrics collection is enabled.
//
// Metrics are enabled if InitRegistry() has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
