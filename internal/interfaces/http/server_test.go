package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One registry for the whole test package; MustRegister panics on a second
// registration against the default gatherer.
var testMetrics = NewMetricsRegistry()

type stubStatus struct{}

func (stubStatus) StatusSnapshot() map[string]interface{} {
	return map[string]interface{}{"running": true, "enabled_jobs": 2}
}

func serve(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.httpSrv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(":0", testMetrics, nil)

	rec := serve(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestStatusEndpoint_IncludesSchedulerWhenPresent(t *testing.T) {
	srv := NewServer(":0", testMetrics, stubStatus{})

	rec := serve(t, srv, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	sched, ok := body["scheduler"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, sched["running"])
}

func TestStatusEndpoint_NoSchedulerOmitsSection(t *testing.T) {
	srv := NewServer(":0", testMetrics, nil)

	rec := serve(t, srv, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	_, present := body["scheduler"]
	assert.False(t, present)
}

func TestMetricsEndpoint_ExposesRunCounters(t *testing.T) {
	testMetrics.RecordRun("audit", "success", 0.2)
	testMetrics.RecordTier("strict", 30)
	testMetrics.RecordCacheHit("market")
	testMetrics.RecordCacheMiss("market")

	srv := NewServer(":0", testMetrics, nil)
	rec := serve(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	scrape := rec.Body.String()
	assert.Contains(t, scrape, "revpilot_runs_total")
	assert.Contains(t, scrape, "revpilot_comp_tier_selected_total")
	assert.Contains(t, scrape, "revpilot_cache_hit_ratio 0.5")
}
