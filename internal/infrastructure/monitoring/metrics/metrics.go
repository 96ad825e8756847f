// Package metrics exposes prometheus instrumentation for batch runs.
// The counters mirror the coverage accounting of the run summary so
// that a scraping dashboard can watch skip/noise rates across runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunMetrics aggregates every metric emitted by the analysis pipeline.
// All vectors are labelled by stage ("positions", "builds", "success")
// or by position name where noted.
type RunMetrics struct {
	RecordsLoaded    *prometheus.CounterVec // stage
	RecordsMalformed *prometheus.CounterVec // stage
	NoisePoints      prometheus.Counter
	ClustersFound    *prometheus.GaugeVec // stage
	UndersizedDrops  *prometheus.CounterVec // position
	Archetypes       *prometheus.GaugeVec   // position
	SignificantFinds prometheus.Counter
	RunDuration      *prometheus.HistogramVec // stage

	registry *prometheus.Registry
}

// NewRunMetrics constructs and registers all pipeline metrics on a
// dedicated registry, keeping the default global registry untouched.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()

	m := &RunMetrics{
		RecordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildsight",
			Name:      "records_loaded_total",
			Help:      "Input records successfully decoded, by pipeline stage.",
		}, []string{"stage"}),
		RecordsMalformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildsight",
			Name:      "records_malformed_total",
			Help:      "Input lines skipped as unparseable, by pipeline stage.",
		}, []string{"stage"}),
		NoisePoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "buildsight",
			Name:      "noise_points_total",
			Help:      "Spawn points rejected as density noise.",
		}),
		ClustersFound: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "buildsight",
			Name:      "clusters_found",
			Help:      "Clusters produced by the latest run, by stage.",
		}, []string{"stage"}),
		UndersizedDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildsight",
			Name:      "undersized_members_dropped_total",
			Help:      "Build sequences excluded because their cluster fell below min_cluster_size.",
		}, []string{"position"}),
		Archetypes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "buildsight",
			Name:      "archetypes",
			Help:      "Archetypes extracted in the latest run, by position.",
		}, []string{"position"}),
		SignificantFinds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "buildsight",
			Name:      "significant_archetypes_total",
			Help:      "Archetypes whose win rate deviated significantly from the position baseline.",
		}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "buildsight",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage"}),
		registry: reg,
	}

	reg.MustRegister(
		m.RecordsLoaded,
		m.RecordsMalformed,
		m.NoisePoints,
		m.ClustersFound,
		m.UndersizedDrops,
		m.Archetypes,
		m.SignificantFinds,
		m.RunDuration,
	)
	return m
}

// Handler returns an http.Handler serving the metrics registry in
// prometheus exposition format.
func (m *RunMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
