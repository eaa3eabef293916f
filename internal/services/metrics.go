package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records data-layer Prometheus metrics: reload activity, merge
// volume, and aggregate-cache effectiveness.
type Metrics struct {
	reloads        prometheus.Counter
	reloadDuration prometheus.Histogram
	snapshotsRead  prometheus.Counter
	recordsMerged  prometheus.Gauge
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
}

// NewMetrics registers the data-layer metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reloads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flowpulse",
			Subsystem: "data",
			Name:      "reloads_total",
			Help:      "Completed snapshot reloads, including no-op reloads short-circuited by fingerprinting.",
		}),
		reloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flowpulse",
			Subsystem: "data",
			Name:      "reload_duration_seconds",
			Help:      "Wall time of a full discover-parse-merge cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		snapshotsRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flowpulse",
			Subsystem: "data",
			Name:      "snapshots_read_total",
			Help:      "Snapshot files read from disk across all reloads.",
		}),
		recordsMerged: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowpulse",
			Subsystem: "data",
			Name:      "records_merged",
			Help:      "Unique trade records in the current canonical set.",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flowpulse",
			Subsystem: "data",
			Name:      "cache_hits_total",
			Help:      "Aggregate-cache hits.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flowpulse",
			Subsystem: "data",
			Name:      "cache_misses_total",
			Help:      "Aggregate-cache misses.",
		}),
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}
