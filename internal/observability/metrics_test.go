package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestListenerGaugeFollowsLifecycle(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ListenerAttached("requests")
	m.ListenerAttached("requests/a@x.in/Mentor_Support/history")
	m.ListenerDetached("requests/a@x.in/Mentor_Support/history")
	m.SnapshotDelivered("requests")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LiveListenersActive.WithLabelValues("dashboard")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LiveListenersActive.WithLabelValues("chat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LiveSnapshotsTotal.WithLabelValues("dashboard")))
}

func TestRecordStatusWriteAndRequests(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordStatusWrite("component", nil)
	m.RecordStatusWrite("component", errors.New("denied"))
	m.RecordRequest("/manager", "GET", 200, 5*time.Millisecond)
	m.RecordError("/manager", "GET", "FORBIDDEN")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusWritesTotal.WithLabelValues("component", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusWritesTotal.WithLabelValues("component", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/manager", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPErrorsTotal.WithLabelValues("GET", "/manager", "FORBIDDEN")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.ListenerAttached("requests")
		m.RecordStatusWrite("print", nil)
	})
}
