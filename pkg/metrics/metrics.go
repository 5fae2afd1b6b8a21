package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AnalysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Total number of bookmark analysis runs.",
		},
		[]string{"trigger", "status"}, // status: completed, failed, canceled
	)

	AnalysisRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_run_duration_seconds",
			Help:    "Duration of complete bookmark analysis runs.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	BookmarksClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookmarks_classified_total",
			Help: "Bookmark leaves classified during analysis.",
		},
		[]string{"class"}, // unique, duplicate
	)

	MetadataFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_fetches_total",
			Help: "Page metadata fetches by outcome.",
		},
		[]string{"outcome"}, // ok, broken
	)

	MetadataFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metadata_fetch_duration_seconds",
			Help:    "Duration of page metadata fetches.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"}, // http, browser
	)

	TriggerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trigger_queue_depth",
			Help: "Current number of analysis triggers waiting in the queue.",
		},
	)
)

// ObserveFetch records one fetch outcome for the given fetch mode.
func ObserveFetch(mode string, broken bool, seconds float64) {
	outcome := "ok"
	if broken {
		outcome = "broken"
	}
	MetadataFetchesTotal.WithLabelValues(outcome).Inc()
	MetadataFetchDuration.WithLabelValues(mode).Observe(seconds)
}
