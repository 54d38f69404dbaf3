package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittosync/pkg/reconcile"
)

// syncMetrics is the Prometheus implementation of reconcile.Metrics.
type syncMetrics struct {
	actionsTotal     *prometheus.CounterVec
	bytesCopied      prometheus.Counter
	phaseDuration    *prometheus.HistogramVec
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	lastRunTimestamp prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
}

var (
	globalSync     *syncMetrics
	globalSyncOnce sync.Once
)

// NewSyncMetrics returns the Prometheus-backed reconcile.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes the Synchronizer to use its built-in no-op implementation.
func NewSyncMetrics() reconcile.Metrics {
	if !IsEnabled() {
		return nil
	}
	globalSyncOnce.Do(func() {
		globalSync = newSyncMetrics(GetRegistry())
	})
	return globalSync
}

func newSyncMetrics(reg prometheus.Registerer) *syncMetrics {
	return &syncMetrics{
		actionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Total number of reconciliation actions by type (match, rename, remove, copy)",
			},
			[]string{"action"},
		),
		bytesCopied: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_copied_total",
				Help:      "Total bytes copied into the destination",
			},
		),
		phaseDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of each reconciliation phase in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					1.0,   // 1s
					10.0,  // 10s
					60.0,  // 1min
					600.0, // 10min
				},
			},
			[]string{"phase"},
		),
		runsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of sync runs by status",
			},
			[]string{"status"},
		),
		runDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of complete sync runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
		),
		lastRunTimestamp: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last sync run finished",
			},
		),
		lastRunSuccess: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_success",
				Help:      "1 if the last sync run succeeded, 0 otherwise",
			},
		),
	}
}

// RecordAction implements reconcile.Metrics.
func (m *syncMetrics) RecordAction(action reconcile.Action) {
	m.actionsTotal.WithLabelValues(string(action)).Inc()
}

// RecordBytesCopied implements reconcile.Metrics.
func (m *syncMetrics) RecordBytesCopied(bytes int64) {
	m.bytesCopied.Add(float64(bytes))
}

// ObservePhase implements reconcile.Metrics.
func (m *syncMetrics) ObservePhase(phase string, duration time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// ObserveSync implements reconcile.Metrics.
func (m *syncMetrics) ObserveSync(duration time.Duration, err error) {
	status := "success"
	success := 1.0
	if err != nil {
		status = "error"
		success = 0
	}

	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.lastRunTimestamp.SetToCurrentTime()
	m.lastRunSuccess.Set(success)
}
