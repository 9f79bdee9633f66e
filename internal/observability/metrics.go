package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the scrape pipeline.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration        prometheus.Histogram
	RunInProgress      prometheus.Gauge
	LastSuccessfulRun  prometheus.Gauge
	RegionsTotal       *prometheus.CounterVec // labels: region, outcome={success,fetch_error,parse_error,empty}
	RecordsExtracted   *prometheus.CounterVec // labels: region
	RowsDropped        *prometheus.CounterVec // labels: region
	FetchDuration      *prometheus.HistogramVec
	SummariesPublished prometheus.Counter
	PublishErrors      prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.RunInProgress,
		m.LastSuccessfulRun,
		m.RegionsTotal,
		m.RecordsExtracted,
		m.RowsDropped,
		m.FetchDuration,
		m.SummariesPublished,
		m.PublishErrors,
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
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dam_levels",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dam_levels",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete scrape-aggregate-export run.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		}),
		RunInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dam_levels",
			Name:      "run_in_progress",
			Help:      "1 while a run is executing, 0 otherwise.",
		}),
		LastSuccessfulRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dam_levels",
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last run that wrote a report.",
		}),
		RegionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dam_levels",
			Name:      "regions_total",
			Help:      "Region scrapes by region and outcome.",
		}, []string{"region", "outcome"}),
		RecordsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dam_levels",
			Name:      "records_extracted_total",
			Help:      "Dam records extracted per region.",
		}, []string{"region"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dam_levels",
			Name:      "rows_dropped_total",
			Help:      "Table rows dropped because their cell count did not match the header.",
		}, []string{"region"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dam_levels",
			Name:      "fetch_duration_seconds",
			Help:      "DWS region page request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"region"}),
		SummariesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dam_levels",
			Name:      "summaries_published_total",
			Help:      "Region average messages written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dam_levels",
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish region averages.",
		}),
	}
}
