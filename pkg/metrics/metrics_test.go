package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.CountDetection("GBF")
	m.CountDetection("GBF")
	m.CountDetection("GSF")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.ObserveInference(120 * time.Millisecond)
	m.ObserveRequest("POST", "/predict/json", 200, 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.detections.WithLabelValues("GBF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.detections.WithLabelValues("GSF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/predict/json", "200")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.CountDetection("GIF")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `granofino_detections_total{class="GIF"} 1`))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CountDetection("GBF")
		m.CacheLookup(true)
		m.ObserveInference(time.Second)
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
	})
}
