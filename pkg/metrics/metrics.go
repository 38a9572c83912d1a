package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// Pipeline Metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	StaleResultsTotal prometheus.Counter

	// Provider Metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	// API Metrics
	APIRequestsTotal *prometheus.CounterVec
}

// NewCollector registers the dashboard metrics with reg. A nil reg uses the
// default Prometheus registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		PipelineRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Dashboard fetch pipelines by entry point and outcome",
			},
			[]string{"entry", "outcome"},
		),

		PipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Time from pipeline start to settlement",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"entry"},
		),

		StaleResultsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_stale_results_total",
				Help:      "Pipeline results discarded because a newer invocation started",
			},
		),

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Outbound provider requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),

		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Outbound provider request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),
	}
}

func (c *Collector) RecordPipeline(entry, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.PipelineRunsTotal.WithLabelValues(entry, outcome).Inc()
	c.PipelineDuration.WithLabelValues(entry).Observe(elapsed.Seconds())
}

func (c *Collector) RecordStaleResult() {
	if c == nil {
		return
	}
	c.StaleResultsTotal.Inc()
}

func (c *Collector) RecordProviderRequest(endpoint, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.ProviderRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	c.ProviderRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (c *Collector) RecordAPIRequest(route, method, status string) {
	if c == nil {
		return
	}
	c.APIRequestsTotal.WithLabelValues(route, method, status).Inc()
}
