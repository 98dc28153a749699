package movers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes pipeline counters for Prometheus scraping.
type Metrics struct {
	RefreshTotal    prometheus.Counter
	RefreshFailures prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	PassDuration    prometheus.Histogram
	SymbolsTracked  prometheus.Gauge
	RecordsEmitted  prometheus.Gauge
}

// NewMetrics registers the pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RefreshTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "movers_refresh_total",
			Help: "Number of pipeline passes attempted",
		}),
		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "movers_refresh_failures_total",
			Help: "Number of pipeline passes that yielded no data",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "movers_cache_hits_total",
			Help: "Number of snapshot requests served from the result cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "movers_cache_misses_total",
			Help: "Number of snapshot requests that triggered a recompute",
		}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "movers_pass_duration_seconds",
			Help:    "Duration of full fetch-compute-cache passes",
			Buckets: prometheus.DefBuckets,
		}),
		SymbolsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "movers_symbols_tracked",
			Help: "Symbols with at least one history sample",
		}),
		RecordsEmitted: factory.NewGauge(prometheus.GaugeOpts{
			Name: "movers_records_emitted",
			Help: "Interval change records produced by the last pass",
		}),
	}
}
