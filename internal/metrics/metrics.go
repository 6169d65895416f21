// Package metrics exposes Prometheus collectors for the HTTP pipeline.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"account-api/internal/cache"
)

// Metrics owns its registry so multiple instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal *prometheus.CounterVec
	rateLimitHits prometheus.Counter
}

// New creates a Metrics instance with Prometheus collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountapi_http_requests_total",
				Help: "Total number of HTTP requests handled",
			},
			[]string{"method", "path", "status"},
		),

		rateLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "accountapi_rate_limit_hits_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),
	}
}

// ObserveRequest counts one handled request.
func (m *Metrics) ObserveRequest(method, path string, status int) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// RateLimitHit counts one rejected request.
func (m *Metrics) RateLimitHit() {
	m.rateLimitHits.Inc()
}

// RegisterCacheStats exports the cache store counters as gauges, sampled on
// every scrape.
func (m *Metrics) RegisterCacheStats(stats func() cache.Stats) {
	m.registry.MustRegister(&cacheCollector{stats: stats})
}

// Handler serves the scrape endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var (
	cacheHitsDesc = prometheus.NewDesc(
		"accountapi_cache_hits_total",
		"Total number of cache lookups that hit a live entry",
		nil, nil,
	)
	cacheMissesDesc = prometheus.NewDesc(
		"accountapi_cache_misses_total",
		"Total number of cache lookups that found nothing",
		nil, nil,
	)
	cacheKeysDesc = prometheus.NewDesc(
		"accountapi_cache_keys",
		"Number of entries currently in the cache",
		nil, nil,
	)
)

type cacheCollector struct {
	stats func() cache.Stats
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheHitsDesc
	ch <- cacheMissesDesc
	ch <- cacheKeysDesc
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(cacheHitsDesc, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(cacheMissesDesc, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(cacheKeysDesc, prometheus.GaugeValue, float64(s.Keys))
}
