package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittosync/pkg/storage"
)

// storageCollectors are shared by every storageMetrics of one registry;
// instances differ only in their role/backend labels.
type storageCollectors struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	bytesTransferred  *prometheus.CounterVec
}

var (
	globalStorage     *storageCollectors
	globalStorageOnce sync.Once
)

// storageMetrics is the Prometheus implementation of storage.Observer for
// one directory.
type storageMetrics struct {
	c       *storageCollectors
	role    string
	backend string
}

// NewStorageMetrics creates a storage.Observer for the directory playing
// role ("source" or "destination") on backend.
//
// Returns nil if metrics are not enabled, in which case storage.Instrument
// leaves the directory unwrapped.
func NewStorageMetrics(role, backend string) storage.Observer {
	if !IsEnabled() {
		return nil
	}

	globalStorageOnce.Do(func() {
		globalStorage = newStorageCollectors(GetRegistry())
	})
	return &storageMetrics{c: globalStorage, role: role, backend: backend}
}

func newStorageCollectors(reg prometheus.Registerer) *storageCollectors {
	labels := []string{"role", "backend", "operation"}
	return &storageCollectors{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations by role, backend, operation and status",
			},
			[]string{"role", "backend", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_operation_duration_seconds",
				Help:      "Duration of storage operations in seconds",
				Buckets: []float64{
					0.0001, // 100us
					0.001,  // 1ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					5.0,    // 5s
				},
			},
			labels,
		),
		errorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Total number of failed storage operations",
			},
			labels,
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_bytes_total",
				Help:      "Total bytes read from or written to storage",
			},
			labels,
		),
	}
}

// ObserveOperation implements storage.Observer.
func (m *storageMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		m.c.errorsTotal.WithLabelValues(m.role, m.backend, operation).Inc()
	}

	m.c.operationsTotal.WithLabelValues(m.role, m.backend, operation, status).Inc()
	m.c.operationDuration.WithLabelValues(m.role, m.backend, operation).Observe(duration.Seconds())
}

// RecordBytes implements storage.Observer.
func (m *storageMetrics) RecordBytes(operation string, bytes int64) {
	m.c.bytesTransferred.WithLabelValues(m.role, m.backend, operation).Add(float64(bytes))
}
