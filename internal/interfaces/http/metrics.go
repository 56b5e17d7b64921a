// Package http exposes the monitoring surface: Prometheus metrics and the
// health/status endpoints for the audit service.
package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// MetricsRegistry holds all Prometheus metrics for RevPilot.
type MetricsRegistry struct {
	// Engine run metrics
	RunDuration *prometheus.HistogramVec
	RunsTotal   *prometheus.CounterVec
	ActiveRuns  prometheus.Gauge

	// Comparable tier fallback metrics
	TierSelected *prometheus.CounterVec
	SampleSize   *prometheus.HistogramVec

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Cache performance metrics
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheHitRatio prometheus.Gauge
}

// NewMetricsRegistry creates and registers all RevPilot metrics.
func NewMetricsRegistry() *MetricsRegistry {
	registry := &MetricsRegistry{
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revpilot_run_duration_seconds",
				Help:    "Duration of engine runs in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"job", "result"},
		),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revpilot_runs_total",
				Help: "Total engine runs by job type and result",
			},
			[]string{"job", "result"},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "revpilot_active_runs",
				Help: "Engine runs currently in flight",
			},
		),

		TierSelected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revpilot_comp_tier_selected_total",
				Help: "Comparable filter tier chosen per run",
			},
			[]string{"tier"},
		),

		SampleSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revpilot_comp_sample_size",
				Help:    "Comparable sample size behind each selected tier",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"tier"},
		),

		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revpilot_provider_requests_total",
				Help: "Comps API requests by endpoint and outcome",
			},
			[]string{"endpoint", "result"},
		),

		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revpilot_provider_latency_seconds",
				Help:    "Comps API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 15.0},
			},
			[]string{"endpoint"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revpilot_cache_hits_total",
				Help: "Response cache hits by record type",
			},
			[]string{"record"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revpilot_cache_misses_total",
				Help: "Response cache misses by record type",
			},
			[]string{"record"},
		),

		CacheHitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "revpilot_cache_hit_ratio",
				Help: "Current cache hit ratio (0.0 to 1.0)",
			},
		),
	}

	prometheus.MustRegister(
		registry.RunDuration,
		registry.RunsTotal,
		registry.ActiveRuns,
		registry.TierSelected,
		registry.SampleSize,
		registry.ProviderRequests,
		registry.ProviderLatency,
		registry.CacheHits,
		registry.CacheMisses,
		registry.CacheHitRatio,
	)

	return registry
}

// RecordRun observes one completed engine run.
func (m *MetricsRegistry) RecordRun(job, result string, seconds float64) {
	m.RunDuration.WithLabelValues(job, result).Observe(seconds)
	m.RunsTotal.WithLabelValues(job, result).Inc()
}

// RecordTier observes the comparable tier a run settled on.
func (m *MetricsRegistry) RecordTier(tier string, sampleSize int) {
	m.TierSelected.WithLabelValues(tier).Inc()
	m.SampleSize.WithLabelValues(tier).Observe(float64(sampleSize))
}

// RecordCacheHit records a response-cache hit and refreshes the ratio gauge.
func (m *MetricsRegistry) RecordCacheHit(record string) {
	m.CacheHits.WithLabelValues(record).Inc()
	m.updateCacheHitRatio()
}

// RecordCacheMiss records a response-cache miss and refreshes the ratio gauge.
func (m *MetricsRegistry) RecordCacheMiss(record string) {
	m.CacheMisses.WithLabelValues(record).Inc()
	m.updateCacheHitRatio()
}

func (m *MetricsRegistry) updateCacheHitRatio() {
	hitMetric := &io_prometheus_client.Metric{}
	missMetric := &io_prometheus_client.Metric{}

	totalHits := 0.0
	totalMisses := 0.0
	for _, record := range []string{"market", "property"} {
		if counter, err := m.CacheHits.GetMetricWithLabelValues(record); err == nil {
			if err := counter.Write(hitMetric); err == nil {
				totalHits += hitMetric.GetCounter().GetValue()
			}
		}
		if counter, err := m.CacheMisses.GetMetricWithLabelValues(record); err == nil {
			if err := counter.Write(missMetric); err == nil {
				totalMisses += missMetric.GetCounter().GetValue()
			}
		}
	}

	if total := totalHits + totalMisses; total > 0 {
		m.CacheHitRatio.Set(totalHits / total)
	}
}

// RecordProviderRequest observes one comps API request.
func (m *MetricsRegistry) RecordProviderRequest(endpoint, result string, seconds float64) {
	m.ProviderRequests.WithLabelValues(endpoint, result).Inc()
	m.ProviderLatency.WithLabelValues(endpoint).Observe(seconds)
	if result != "success" {
		log.Warn().
			Str("endpoint", endpoint).
			Str("result", result).
			Msg("Provider request failure recorded")
	}
}

// MetricsHandler returns the Prometheus scrape handler.
func (m *MetricsRegistry) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
