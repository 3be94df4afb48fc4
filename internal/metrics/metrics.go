// Package metrics defines the Prometheus instrumentation for the
// indicator engine and signal generator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"taengine/internal/cache"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Indicator engine metrics
	ComputeDur    *prometheus.HistogramVec // labels: indicator
	ComputesTotal *prometheus.CounterVec   // labels: indicator
	ComputeErrors *prometheus.CounterVec   // labels: indicator, reason

	// Signal generator metrics
	SignalsTotal     *prometheus.CounterVec // labels: type
	SignalConfidence prometheus.Histogram
}

// New builds and registers all metrics. A nil registerer falls back to
// prometheus.DefaultRegisterer; tests pass their own registry so repeated
// construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taengine_indicator_compute_duration_seconds",
			Help:    "Indicator batch compute latency (cache misses only)",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}, []string{"indicator"}),
		ComputesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taengine_indicator_computes_total",
			Help: "Total successful indicator computations (hits and misses)",
		}, []string{"indicator"}),
		ComputeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taengine_indicator_errors_total",
			Help: "Indicator computations rejected, by reason",
		}, []string{"indicator", "reason"}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taengine_signals_total",
			Help: "Trading signals emitted, by type",
		}, []string{"type"}),
		SignalConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taengine_signal_confidence",
			Help:    "Confidence score distribution of emitted signals",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}

	reg.MustRegister(
		m.ComputeDur,
		m.ComputesTotal,
		m.ComputeErrors,
		m.SignalsTotal,
		m.SignalConfidence,
	)

	return m
}

// CacheCollector exports cache counters straight from cache.Stats, so the
// scrape always reflects the live cache without a parallel counter set.
type CacheCollector struct {
	cache *cache.Cache

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	entries   *prometheus.Desc
	capacity  *prometheus.Desc
}

// NewCacheCollector wraps c for registration with a Prometheus registry.
func NewCacheCollector(c *cache.Cache) *CacheCollector {
	return &CacheCollector{
		cache: c,
		hits: prometheus.NewDesc("taengine_cache_hits_total",
			"Cache lookups served from a resident entry", nil, nil),
		misses: prometheus.NewDesc("taengine_cache_misses_total",
			"Cache lookups that required computation", nil, nil),
		evictions: prometheus.NewDesc("taengine_cache_evictions_total",
			"Entries removed to make room for new insertions", nil, nil),
		entries: prometheus.NewDesc("taengine_cache_entries",
			"Resident cache entries", nil, nil),
		capacity: prometheus.NewDesc("taengine_cache_capacity",
			"Configured cache entry bound", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (cc *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cc.hits
	ch <- cc.misses
	ch <- cc.evictions
	ch <- cc.entries
	ch <- cc.capacity
}

// Collect implements prometheus.Collector.
func (cc *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	st := cc.cache.Stats()
	ch <- prometheus.MustNewConstMetric(cc.hits, prometheus.CounterValue, float64(st.Hits))
	ch <- prometheus.MustNewConstMetric(cc.misses, prometheus.CounterValue, float64(st.Misses))
	ch <- prometheus.MustNewConstMetric(cc.evictions, prometheus.CounterValue, float64(st.Evictions))
	ch <- prometheus.MustNewConstMetric(cc.entries, prometheus.GaugeValue, float64(st.Entries))
	ch <- prometheus.MustNewConstMetric(cc.capacity, prometheus.GaugeValue, float64(st.Capacity))
}
