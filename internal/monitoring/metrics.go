package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal        *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	CacheLookupsTotal   *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
	ResultsTotal        prometheus.Counter
	ErrorsTotal         *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers every metric on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_fetches_total",
			Help: "The total number of page fetches",
		}, []string{"kind", "status"}), // kind: search, repository; status: success, failure
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Duration of page fetches.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		CacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_cache_lookups_total",
			Help: "Page cache lookups by outcome",
		}, []string{"outcome"}), // hit, miss, error
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_runs_total",
			Help: "The total number of pipeline runs",
		}, []string{"type", "status"}),
		ResultsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_results_total",
			Help: "The total number of search results extracted",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"kind"}), // e.g., 'fetch', 'parse', 'missing_field'
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The recording helpers below are no-ops on a nil *Metrics.

func (m *Metrics) ObserveFetch(kind string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.FetchesTotal.WithLabelValues(kind, status).Inc()
	m.FetchDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) IncCacheLookup(outcome string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRun(entityType, status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(entityType, status).Inc()
}

func (m *Metrics) AddResults(n int) {
	if m == nil {
		return
	}
	m.ResultsTotal.Add(float64(n))
}

func (m *Metrics) IncErrorsTotal(kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}
