package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the console's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec

	LiveListenersActive *prometheus.GaugeVec
	LiveSnapshotsTotal  *prometheus.CounterVec

	StatusWritesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_errors_total",
				Help: "Total number of failed HTTP requests by error code",
			},
			[]string{"method", "path", "code"},
		),
		LiveListenersActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "console_live_listeners_active",
				Help: "Number of attached request store listeners",
			},
			[]string{"scope"},
		),
		LiveSnapshotsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_live_snapshots_total",
				Help: "Total number of snapshots delivered to listeners",
			},
			[]string{"scope"},
		),
		StatusWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_status_writes_total",
				Help: "Total number of request status writes",
			},
			[]string{"kind", "result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPErrorsTotal,
		m.LiveListenersActive,
		m.LiveSnapshotsTotal,
		m.StatusWritesTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError counts a request that failed with a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordStatusWrite counts a status mutation.
func (m *Metrics) RecordStatusWrite(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StatusWritesTotal.WithLabelValues(kind, result).Inc()
}

// ListenerAttached implements store.Observer.
func (m *Metrics) ListenerAttached(path string) {
	if m == nil {
		return
	}
	m.LiveListenersActive.WithLabelValues(scope(path)).Inc()
}

// ListenerDetached implements store.Observer.
func (m *Metrics) ListenerDetached(path string) {
	if m == nil {
		return
	}
	m.LiveListenersActive.WithLabelValues(scope(path)).Dec()
}

// SnapshotDelivered implements store.Observer.
func (m *Metrics) SnapshotDelivered(path string) {
	if m == nil {
		return
	}
	m.LiveSnapshotsTotal.WithLabelValues(scope(path)).Inc()
}

// scope keeps label cardinality bounded: user emails never become labels.
func scope(path string) string {
	switch {
	case path == "requests":
		return "dashboard"
	case strings.HasSuffix(path, "/history"):
		return "chat"
	default:
		return "other"
	}
}
