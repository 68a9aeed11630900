package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the alert pipeline.
type Metrics struct {
	CyclesTotal     *prometheus.CounterVec // labels: outcome={success,fetch_error,parse_error,store_error}
	CycleDuration   prometheus.Histogram
	EventsFetched   prometheus.Counter
	EventsSkipped   *prometheus.CounterVec // labels: reason={already_sent,incomplete,not_target,deferred,store_error}
	AlertsNotified  prometheus.Counter
	BroadcastErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: provider, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_alert",
			Name:      "cycles_total",
			Help:      "Polling cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_alert",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-filter-broadcast cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		EventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_alert",
			Name:      "events_fetched_total",
			Help:      "Total events returned by the seismic feed.",
		}),
		EventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_alert",
			Name:      "events_skipped_total",
			Help:      "Events not notified, by reason.",
		}, []string{"reason"}),
		AlertsNotified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_alert",
			Name:      "alerts_notified_total",
			Help:      "Events included in a broadcast batch.",
		}),
		BroadcastErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_alert",
			Name:      "broadcast_errors_total",
			Help:      "Broadcast requests that did not return 200.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_alert",
			Name:      "pipeline_running",
			Help:      "1 when the scheduler loop is active, 0 when shut down.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_alert",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_alert",
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quake_alert",
			Name:      "geocode_api_duration_seconds",
			Help:      "Reverse geocoding API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.EventsFetched,
		m.EventsSkipped,
		m.AlertsNotified,
		m.BroadcastErrors,
		m.PipelineRunning,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CyclesTotal:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_alert", Name: "cycles_total"}, []string{"outcome"}),
		CycleDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_alert", Name: "cycle_duration_seconds"}),
		EventsFetched:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_alert", Name: "events_fetched_total"}),
		EventsSkipped:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_alert", Name: "events_skipped_total"}, []string{"reason"}),
		AlertsNotified:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_alert", Name: "alerts_notified_total"}),
		BroadcastErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_alert", Name: "broadcast_errors_total"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_alert", Name: "pipeline_running"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_alert", Name: "geocode_requests_total"}, []string{"provider", "outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_alert", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "quake_alert", Name: "geocode_api_duration_seconds"}, []string{"provider"}),
	}
}
