// Package metrics exposes Prometheus instrumentation for TLS channels.
//
// A Metrics value owns a private registry, so several channels (or tests)
// can share one instance without touching the global default registry.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handshake results.
const (
	ResultSuccess      = "success"
	ResultVerification = "verification"
	ResultHandshake    = "handshake"
	ResultTransport    = "transport"
	ResultConfig       = "config"
)

// Byte-counter labels.
const (
	DirectionIn  = "in"
	DirectionOut = "out"

	LayerTransport = "transport"
	LayerRecord    = "record"
)

// Metrics holds all Prometheus metrics for TLS channels.
type Metrics struct {
	// Crypto context lifecycle
	bundlesInitialized prometheus.Counter
	bundlesTornDown    prometheus.Counter
	bundlesLive        prometheus.Gauge

	// Handshakes
	handshakesTotal   *prometheus.CounterVec
	handshakeDuration prometheus.Histogram

	// Data
	bytesTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		bundlesInitialized: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tlssocket_bundles_initialized_total",
				Help: "Total number of crypto context bundles initialized",
			},
		),

		bundlesTornDown: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tlssocket_bundles_torn_down_total",
				Help: "Total number of crypto context bundles torn down",
			},
		),

		bundlesLive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tlssocket_bundles_live",
				Help: "Number of crypto context bundles currently allocated",
			},
		),

		handshakesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tlssocket_handshakes_total",
				Help: "Total number of connect attempts by result",
			},
			[]string{"result"},
		),

		handshakeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tlssocket_handshake_duration_seconds",
				Help:    "Duration of successful TLS handshakes in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),

		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tlssocket_bytes_total",
				Help: "Total bytes moved by direction and layer",
			},
			[]string{"direction", "layer"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.bundlesInitialized,
		m.bundlesTornDown,
		m.bundlesLive,
		m.handshakesTotal,
		m.handshakeDuration,
		m.bytesTotal,
	)

	return m
}

// BundleInitialized records a crypto context allocation.
func (m *Metrics) BundleInitialized() {
	if m == nil {
		return
	}
	m.bundlesInitialized.Inc()
	m.bundlesLive.Inc()
}

// BundleTornDown records a crypto context release.
func (m *Metrics) BundleTornDown() {
	if m == nil {
		return
	}
	m.bundlesTornDown.Inc()
	m.bundlesLive.Dec()
}

// RecordHandshake records the outcome of a connect attempt. The duration is
// observed for successful handshakes only.
func (m *Metrics) RecordHandshake(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.handshakesTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.handshakeDuration.Observe(duration.Seconds())
	}
}

// RecordBytes adds n bytes to the counter for direction and layer.
func (m *Metrics) RecordBytes(direction, layer string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesTotal.WithLabelValues(direction, layer).Add(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
