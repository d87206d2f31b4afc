package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FetchMetrics tracks upstream API usage for one run.
// A nil *FetchMetrics is valid and records nothing.
type FetchMetrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	retries      *prometheus.CounterVec
}

func NewFetchMetrics() *FetchMetrics {
	m := &FetchMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldscope_upstream_requests_total",
				Help: "Upstream API requests by endpoint and status",
			},
			[]string{"endpoint", "status"}, // status: ok|api_error|transport_error
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldscope_cache_lookups_total",
				Help: "Response cache lookups by endpoint and result",
			},
			[]string{"endpoint", "result"}, // result: hit|miss
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldscope_upstream_latency_seconds",
				Help:    "Upstream API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldscope_upstream_retries_total",
				Help: "Upstream API retry attempts",
			},
			[]string{"endpoint"},
		),
	}
	m.registry.MustRegister(m.requests, m.cacheLookups, m.latency, m.retries)
	return m
}

func (m *FetchMetrics) ObserveRequest(endpoint, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, status).Inc()
	m.latency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *FetchMetrics) ObserveCache(endpoint string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(endpoint, result).Inc()
}

func (m *FetchMetrics) ObserveRetry(endpoint string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(endpoint).Inc()
}

// Gatherer exposes the underlying registry. A nil receiver yields an empty gatherer.
func (m *FetchMetrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// WriteTextfile dumps all metrics in the node_exporter textfile format.
func (m *FetchMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Gatherer()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
