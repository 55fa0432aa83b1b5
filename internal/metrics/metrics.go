package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "media_explorer"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	PathRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_rejections_total",
			Help:      "Requests rejected because the path escaped the shared root",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_requests_total",
			Help:      "Thumbnail requests by media kind and outcome",
		},
		[]string{"kind", "result"}, // "hit", "generated", "placeholder"
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_generations_total",
			Help:      "Total number of thumbnail generations",
		},
		[]string{"kind", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "thumbnail_generation_duration_seconds",
			Help:      "Thumbnail generation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	ThumbnailFFmpegAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_ffmpeg_attempts_total",
			Help:      "Frame extraction attempts by seek mode and result",
		},
		[]string{"mode", "result"},
	)

	ThumbnailCacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_cache_write_errors_total",
			Help:      "Thumbnails that could not be persisted to the cache directory",
		},
	)

	ThumbnailCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thumbnail_cache_size_bytes",
			Help:      "Total size of the thumbnail cache in bytes",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thumbnail_cache_count",
			Help:      "Number of thumbnails in the cache",
		},
	)

	ThumbnailWorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thumbnail_workers_busy",
			Help:      "Thumbnail generations currently holding a worker slot",
		},
	)
)

// Singleflight metrics
var (
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_singleflight_requests_total",
			Help:      "Cache misses by whether they started a generation or joined one",
		},
		[]string{"result"}, // "initiated", "shared"
	)
)

// Janitor metrics
var (
	JanitorRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "janitor_runs_total",
			Help:      "Number of cache maintenance passes",
		},
	)

	JanitorDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "janitor_deleted_files_total",
			Help:      "Cache files removed by the janitor",
		},
		[]string{"reason"}, // "age", "size", "temp"
	)

	JanitorFreedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "janitor_freed_bytes_total",
			Help:      "Bytes reclaimed by the janitor",
		},
	)

	JanitorLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "janitor_last_run_timestamp",
			Help:      "Unix timestamp of the last maintenance pass",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filesystem_operation_duration_seconds",
			Help:      "Filesystem operation duration by volume and operation",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filesystem_operation_errors_total",
			Help:      "Filesystem operations that returned an error",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filesystem_retry_attempts_total",
			Help:      "Retries triggered by NFS stale file handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filesystem_retry_success_total",
			Help:      "Operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filesystem_retry_failures_total",
			Help:      "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filesystem_stale_errors_total",
			Help:      "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_info",
			Help:      "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
