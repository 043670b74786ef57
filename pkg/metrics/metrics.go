package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_cache_hits_total",
		Help: "Total number of tile cache hits",
	}, []string{"layer"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_cache_misses_total",
		Help: "Total number of tile cache misses",
	}, []string{"layer"})

	CacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_cache_evictions_total",
		Help: "Total number of tiles evicted from a tile cache",
	}, []string{"layer"})

	TilesResident = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "terrain_tiles_resident",
		Help: "Number of tiles currently held by a producer",
	}, []string{"layer"})

	TasksEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_tasks_enqueued_total",
		Help: "Total number of generation tasks handed to the scheduler",
	}, []string{"layer"})

	TasksCanceled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_tasks_canceled_total",
		Help: "Total number of generation tasks cancelled before their result was used",
	}, []string{"layer"})

	StaleResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_stale_results_total",
		Help: "Total number of generation results discarded because the tile was no longer wanted",
	}, []string{"layer"})

	DependencyWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_dependency_waits_total",
		Help: "Total number of node updates skipped because upstream data was not ready",
	}, []string{"layer"})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_gpu_uploads_total",
		Help: "Total number of tile uploads to GPU texture array layers",
	}, []string{"layer"})

	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "terrain_task_duration_seconds",
		Help:    "Duration of tile generation tasks in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"kind"})

	SchedulerQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "terrain_scheduler_queue_depth",
		Help: "Number of tasks waiting for a worker",
	})

	NodesSelected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "terrain_nodes_selected",
		Help: "Number of quad-tree nodes selected in the last frame",
	})

	FrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "terrain_frame_duration_seconds",
		Help:    "Duration of the streaming part of a frame in seconds",
		Buckets: []float64{.0001, .0005, .001, .002, .004, .008, .016, .033, .066},
	})

	// Dump store metrics
	DumpOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "terrain_dump_operation_duration_seconds",
		Help:    "Duration of tile dump store operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"backend", "operation"})

	DumpErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_dump_errors_total",
		Help: "Total number of tile dump store errors",
	}, []string{"backend", "operation"})
)
