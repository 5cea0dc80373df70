package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presale-tracker/models"
)

const metricsNamespace = "presale"

// Metrics holds the Prometheus collectors of one server, on its own registry.
type Metrics struct {
	registry     *prometheus.Registry
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	projects     prometheus.Gauge
	transactions prometheus.Gauge
	filtered     prometheus.Gauge
	rateLimited  prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by source and outcome.",
		}, []string{"source", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Wall time of a pipeline run including any fetch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		projects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "latest_projects",
			Help:      "Projects in the latest result.",
		}),
		transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "latest_transactions",
			Help:      "Pre-sale transactions in the latest result.",
		}),
		filtered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "latest_filtered_rows",
			Help:      "Rows filtered out of the latest result.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.runs, m.runDuration, m.projects, m.transactions, m.filtered, m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records one run.
func (m *Metrics) ObserveRun(source, outcome string, elapsed time.Duration) {
	m.runs.WithLabelValues(source, outcome).Inc()
	m.runDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// SetLatest publishes the size of the result now being served.
func (m *Metrics) SetLatest(res *models.AggregationResult) {
	m.projects.Set(float64(len(res.Projects)))
	m.transactions.Set(float64(res.Stats.Presale))
	m.filtered.Set(float64(res.Stats.Filtered))
}
