package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// observation pipeline.
type Metrics struct {
	ScenesDiscovered prometheus.Counter
	DatesProcessed   prometheus.Counter
	DatesFailed      prometheus.Counter
	DatesSkipped     prometheus.Counter // already in history as success
	PixelsComputed   prometheus.Counter
	RunActive        prometheus.Gauge

	CatalogRequestDuration *prometheus.HistogramVec // labels: endpoint={search,samples}
	SceneProcessDuration   prometheus.Histogram
	PublishDuration        prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ScenesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wheat_map",
			Name:      "scenes_discovered_total",
			Help:      "Total scenes returned by catalog discovery after filtering.",
		}),
		DatesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wheat_map",
			Name:      "dates_processed_total",
			Help:      "Total acquisition dates recorded as success.",
		}),
		DatesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wheat_map",
			Name:      "dates_failed_total",
			Help:      "Total acquisition dates recorded as failed.",
		}),
		DatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wheat_map",
			Name:      "dates_skipped_total",
			Help:      "Total discovered dates already processed in a prior run.",
		}),
		PixelsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wheat_map",
			Name:      "pixels_computed_total",
			Help:      "Total pixels with computed index values.",
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wheat_map",
			Name:      "run_active",
			Help:      "1 while a pipeline run is in progress.",
		}),
		CatalogRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wheat_map",
			Name:      "catalog_request_duration_seconds",
			Help:      "Imagery catalog request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		SceneProcessDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wheat_map",
			Name:      "scene_process_duration_seconds",
			Help:      "Duration of sampling and index compute for one date.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wheat_map",
			Name:      "publish_duration_seconds",
			Help:      "Duration of the full map document rebuild.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.ScenesDiscovered,
		m.DatesProcessed,
		m.DatesFailed,
		m.DatesSkipped,
		m.PixelsComputed,
		m.RunActive,
		m.CatalogRequestDuration,
		m.SceneProcessDuration,
		m.PublishDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ScenesDiscovered:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wheat_map", Name: "scenes_discovered_total"}),
		DatesProcessed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wheat_map", Name: "dates_processed_total"}),
		DatesFailed:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wheat_map", Name: "dates_failed_total"}),
		DatesSkipped:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wheat_map", Name: "dates_skipped_total"}),
		PixelsComputed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wheat_map", Name: "pixels_computed_total"}),
		RunActive:              prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wheat_map", Name: "run_active"}),
		CatalogRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "wheat_map", Name: "catalog_request_duration_seconds"}, []string{"endpoint"}),
		SceneProcessDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wheat_map", Name: "scene_process_duration_seconds"}),
		PublishDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wheat_map", Name: "publish_duration_seconds"}),
	}
}
