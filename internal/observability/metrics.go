package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "areascore"

// Metrics holds the Prometheus counters, histograms, and gauges for scoring runs.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec   // labels: outcome={success,error}
	StageDuration    *prometheus.HistogramVec // labels: stage
	RunDuration      prometheus.Histogram
	AreasScored      prometheus.Gauge
	OutliersFlagged  prometheus.Gauge
	LastRunTimestamp prometheus.Gauge

	// Forecast metrics.
	ForecastsTotal *prometheus.CounterVec // labels: metric, model={linear_trend,seasonal_naive}
	EmptyForecasts *prometheus.CounterVec // labels: metric
	ForecastCache  *prometheus.CounterVec // labels: result={hit,miss}

	// Input metrics.
	InputRowsSkipped *prometheus.CounterVec // labels: table
	EventsPublished  prometheus.Counter
}

func newMetrics(help bool) *Metrics {
	h := func(s string) string {
		if help {
			return s
		}
		return ""
	}

	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      h("Scoring runs by outcome."),
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      h("Duration of each pipeline stage."),
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      h("Duration of a complete scoring run."),
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		AreasScored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "areas_scored",
			Help:      h("Areas in the latest score set."),
		}),
		OutliersFlagged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outliers_flagged",
			Help:      h("Areas flagged as outliers in the latest score set."),
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      h("Unix time of the latest successful run."),
		}),
		ForecastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_total",
			Help:      h("Forecasts produced by metric and model."),
		}, []string{"metric", "model"}),
		EmptyForecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_empty_total",
			Help:      h("Series with too little history to forecast."),
		}, []string{"metric"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      h("Forecast cache lookups by result."),
		}, []string{"result"}),
		InputRowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_rows_skipped_total",
			Help:      h("Input rows dropped for bad dates or values."),
		}, []string{"table"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_events_published_total",
			Help:      h("Score events written to the broker."),
		}),
	}
}

// NewMetrics creates and registers all scoring metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RunsTotal,
		m.StageDuration,
		m.RunDuration,
		m.AreasScored,
		m.OutliersFlagged,
		m.LastRunTimestamp,
		m.ForecastsTotal,
		m.EmptyForecasts,
		m.ForecastCache,
		m.InputRowsSkipped,
		m.EventsPublished,
	}
}
