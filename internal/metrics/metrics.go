// Package metrics defines the Prometheus collectors for the search server and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SearchQueriesTotal  *prometheus.CounterVec
	SearchLatency       *prometheus.HistogramVec
	SearchResultsCount  prometheus.Histogram
	QueryTermsCount     prometheus.Histogram
	IndexDocuments      prometheus.Gauge
	IndexTerms          prometheus.Gauge
	IndexGeneration     prometheus.Gauge
	IndexSwapsTotal     prometheus.Counter
}

// New creates all collectors and registers them, along with the Go and
// process collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by source (terms, archive) and outcome (hit, zero_result, error).",
			},
			[]string{"source", "outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"source", "cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of matches returned per search.",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 1000, 10000},
			},
		),
		QueryTermsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_query_terms",
				Help:    "Number of query terms per search.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		IndexDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "index_documents",
			Help: "Number of archives in the serving index.",
		}),
		IndexTerms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "index_terms",
			Help: "Number of distinct terms in the serving index.",
		}),
		IndexGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "index_generation",
			Help: "Generation of the serving index; increments on every swap.",
		}),
		IndexSwapsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "index_swaps_total",
			Help: "Total number of serving index swaps.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.QueryTermsCount,
		m.IndexDocuments,
		m.IndexTerms,
		m.IndexGeneration,
		m.IndexSwapsTotal,
	)
	return m
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveSearch records one query.
func (m *Metrics) ObserveSearch(source string, cached bool, terms, results int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
	case results == 0:
		outcome = "zero_result"
	}
	m.SearchQueriesTotal.WithLabelValues(source, outcome).Inc()
	if err != nil {
		return
	}

	cacheStatus := "miss"
	if cached {
		cacheStatus = "hit"
	}
	m.SearchLatency.WithLabelValues(source, cacheStatus).Observe(elapsed.Seconds())
	m.SearchResultsCount.Observe(float64(results))
	m.QueryTermsCount.Observe(float64(terms))
}

// SetIndex records the shape of a newly served index.
func (m *Metrics) SetIndex(documents, terms int, generation uint64) {
	if m == nil {
		return
	}
	m.IndexDocuments.Set(float64(documents))
	m.IndexTerms.Set(float64(terms))
	m.IndexGeneration.Set(float64(generation))
	m.IndexSwapsTotal.Inc()
}
