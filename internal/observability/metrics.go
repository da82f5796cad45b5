package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// network build pipeline.
type Metrics struct {
	BuildsStarted   prometheus.Counter
	BuildsCompleted prometheus.Counter
	BuildsFailed    prometheus.Counter
	BuildActive     prometheus.Gauge

	StageDuration *prometheus.HistogramVec // label: stage
	BuildDuration prometheus.Histogram

	Warnings *prometheus.CounterVec // label: kind

	NodesBuilt prometheus.Histogram
	LinksBuilt prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.BuildsStarted,
		m.BuildsCompleted,
		m.BuildsFailed,
		m.BuildActive,
		m.StageDuration,
		m.BuildDuration,
		m.Warnings,
		m.NodesBuilt,
		m.LinksBuilt,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		BuildsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netbuilder",
			Name:      "builds_started_total",
			Help:      "Total network builds submitted.",
		}),
		BuildsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netbuilder",
			Name:      "builds_completed_total",
			Help:      "Total network builds that produced a document.",
		}),
		BuildsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netbuilder",
			Name:      "builds_failed_total",
			Help:      "Total network builds aborted by a fatal error.",
		}),
		BuildActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netbuilder",
			Name:      "build_active",
			Help:      "1 while a build is in flight, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "netbuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"stage"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netbuilder",
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete build.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netbuilder",
			Name:      "warnings_total",
			Help:      "Connectivity warnings attached to successful builds, by kind.",
		}, []string{"kind"}),
		NodesBuilt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netbuilder",
			Name:      "nodes_built",
			Help:      "Node count per built network.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		LinksBuilt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netbuilder",
			Name:      "links_built",
			Help:      "Link count per built network.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}
}
