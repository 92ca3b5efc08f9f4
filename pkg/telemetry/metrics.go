package telemetry

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for Deckhand.
type Metrics struct {
	config MetricsConfig

	// Provisioning lifecycle metrics
	provisioningStarted   prometheus.Counter
	provisioningCompleted *prometheus.CounterVec
	stateTransitions      *prometheus.CounterVec
	overridesApplied      prometheus.Counter

	// Collaborator metrics
	collaboratorCalls    *prometheus.CounterVec
	collaboratorDuration *prometheus.HistogramVec
	collaboratorErrors   *prometheus.CounterVec

	// Deduplication metrics
	dedupeInputRecords *prometheus.CounterVec
	dedupeGroups       *prometheus.CounterVec
	dedupeGroupSize    *prometheus.HistogramVec

	// System metrics
	activeSessions prometheus.Gauge

	registry *prometheus.Registry
	server   *http.Server
}

// NewMetrics creates a new metrics collector with the given configuration.
// When metrics are disabled every method is a no-op.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		provisioningStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provisioning_started_total",
				Help:      "Total number of provisioning attempts started",
			},
		),
		provisioningCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provisioning_completed_total",
				Help:      "Total number of provisioning attempts reaching a terminal state",
			},
			[]string{"state"},
		),
		stateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "machine_transitions_total",
				Help:      "Total number of state machine transitions",
			},
			[]string{"from", "to"},
		),
		overridesApplied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "manual_overrides_total",
				Help:      "Total number of manual success overrides applied from monitoring errors",
			},
		),

		collaboratorCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collaborator_calls_total",
				Help:      "Total number of collaborator invocations",
			},
			[]string{"operation"},
		),
		collaboratorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "collaborator_duration_seconds",
				Help:      "Duration of collaborator invocations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		collaboratorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collaborator_errors_total",
				Help:      "Total number of failed collaborator invocations",
			},
			[]string{"operation"},
		),

		dedupeInputRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dedupe_input_records_total",
				Help:      "Total number of raw provider records fed into deduplication",
			},
			[]string{"kind"},
		),
		dedupeGroups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dedupe_groups_total",
				Help:      "Total number of deduplicated groups produced",
			},
			[]string{"kind"},
		),
		dedupeGroupSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dedupe_group_size",
				Help:      "Number of provider records per deduplicated group",
				Buckets:   []float64{1, 2, 3, 4, 5, 8, 13},
			},
			[]string{"kind"},
		),

		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of provisioning sessions not yet in a terminal state",
			},
		),
	}

	registry.MustRegister(
		m.provisioningStarted,
		m.provisioningCompleted,
		m.stateTransitions,
		m.overridesApplied,
		m.collaboratorCalls,
		m.collaboratorDuration,
		m.collaboratorErrors,
		m.dedupeInputRecords,
		m.dedupeGroups,
		m.dedupeGroupSize,
		m.activeSessions,
	)

	return m, nil
}

// RecordProvisioningStarted increments the started counter.
func (m *Metrics) RecordProvisioningStarted() {
	if m.registry == nil {
		return
	}
	m.provisioningStarted.Inc()
}

// RecordProvisioningCompleted increments the completed counter for a
// terminal machine state.
func (m *Metrics) RecordProvisioningCompleted(state string) {
	if m.registry == nil {
		return
	}
	m.provisioningCompleted.WithLabelValues(state).Inc()
}

// RecordTransition increments the transition counter for a from/to pair.
func (m *Metrics) RecordTransition(from, to string) {
	if m.registry == nil {
		return
	}
	m.stateTransitions.WithLabelValues(from, to).Inc()
}

// RecordOverride increments the manual-override counter.
func (m *Metrics) RecordOverride() {
	if m.registry == nil {
		return
	}
	m.overridesApplied.Inc()
}

// RecordCollaboratorCall records one collaborator invocation.
func (m *Metrics) RecordCollaboratorCall(operation string, duration time.Duration, err error) {
	if m.registry == nil {
		return
	}
	m.collaboratorCalls.WithLabelValues(operation).Inc()
	m.collaboratorDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.collaboratorErrors.WithLabelValues(operation).Inc()
	}
}

// RecordDedupe records the outcome of one deduplication pass.
func (m *Metrics) RecordDedupe(kind string, inputs int, groupSizes []int) {
	if m.registry == nil {
		return
	}
	m.dedupeInputRecords.WithLabelValues(kind).Add(float64(inputs))
	m.dedupeGroups.WithLabelValues(kind).Add(float64(len(groupSizes)))
	for _, size := range groupSizes {
		m.dedupeGroupSize.WithLabelValues(kind).Observe(float64(size))
	}
}

// SetActiveSessions sets the active session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m.registry == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// Handler returns the HTTP handler for the metrics endpoint, or nil when
// metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer starts the metrics HTTP server if metrics are
// enabled. It returns immediately; the server runs until Shutdown.
func (m *Metrics) StartMetricsServer() error {
	if m.registry == nil {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	m.server = &http.Server{
		Addr:              m.config.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
		}
	}()
	return nil
}

// Shutdown stops the metrics HTTP server if one is running.
func (m *Metrics) Shutdown() error {
	if m.server == nil {
		return nil
	}
	return m.server.Close()
}
