package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// alert pipeline.
type Metrics struct {
	PollCycles      prometheus.Counter
	CycleDuration   prometheus.Histogram
	PollerRunning   prometheus.Gauge
	FetchErrors     *prometheus.CounterVec // label: source
	EventsIngested  *prometheus.CounterVec // label: source
	AlertsGenerated prometheus.Counter
	AlertsUpserted  *prometheus.CounterVec // label: outcome={inserted,refreshed,updated}
	AlertsEvicted   prometheus.Counter
	CacheSize       prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PollCycles,
		m.CycleDuration,
		m.PollerRunning,
		m.FetchErrors,
		m.EventsIngested,
		m.AlertsGenerated,
		m.AlertsUpserted,
		m.AlertsEvicted,
		m.CacheSize,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can construct the pipeline repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "poll_cycles_total",
			Help:      "Total completed poll cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazard_alerts",
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-generate-upsert cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_alerts",
			Name:      "poller_running",
			Help:      "1 when the poller loop is active, 0 when shut down.",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "fetch_errors_total",
			Help:      "Failed feed fetches by source.",
		}, []string{"source"}),
		EventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "events_ingested_total",
			Help:      "Normalized events collected from feeds by source.",
		}, []string{"source"}),
		AlertsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "alerts_generated_total",
			Help:      "Alerts emitted by the generator after filtering.",
		}),
		AlertsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "alerts_upserted_total",
			Help:      "Cache upserts by outcome.",
		}, []string{"outcome"}),
		AlertsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_alerts",
			Name:      "alerts_evicted_total",
			Help:      "Alerts removed by TTL eviction.",
		}),
		CacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_alerts",
			Name:      "cache_size",
			Help:      "Current number of live alerts in the cache.",
		}),
	}
}
