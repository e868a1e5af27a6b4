package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordRecompute("semester", 3)
	m.RecordRecompute("semester", 0)
	m.RecordScoreBatch(4, 1)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	assert.Equal(t, 3.0, counterValue(t, m.recomputed.WithLabelValues("semester")))
	assert.Equal(t, 4.0, counterValue(t, m.scoreRows.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, counterValue(t, m.scoreRows.WithLabelValues("skipped")))

	var gauge dto.Metric
	require.NoError(t, m.cacheHitRatio.Write(&gauge))
	assert.Equal(t, 0.5, gauge.GetGauge().GetValue())
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordRecompute("subject", 1)
	m.RecordAccountEmail("sent")
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
