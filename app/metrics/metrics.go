package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CollectRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ioc_comb_collect_runs_total",
			Help: "Collector runs by source and result",
		},
		[]string{"source", "result"},
	)

	ArtifactsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ioc_comb_artifacts_extracted_total",
			Help: "Artifacts returned by collector runs after filtering",
		},
		[]string{"source", "kind"},
	)

	ArtifactsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ioc_comb_artifacts_stored_total",
			Help: "Artifacts not previously stored for the source",
		},
		[]string{"source"},
	)

	CollectDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ioc_comb_collect_duration_seconds",
			Help:    "Duration of collector runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	QueuedTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ioc_comb_queued_tasks",
			Help: "Tasks waiting in the scheduler queue",
		},
	)
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
