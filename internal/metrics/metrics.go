package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Work queue metrics
var (
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_viewer_queue_depth",
			Help: "Number of items waiting in the work queue",
		},
	)

	QueueActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_viewer_queue_active",
			Help: "Outstanding producer reservations plus items queued or being processed",
		},
	)
)

// Walker metrics
var (
	WalkerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_viewer_walker_runs_total",
			Help: "Total number of directory walks started",
		},
	)

	WalkerDirectoriesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_viewer_walker_directories_scanned_total",
			Help: "Total number of directories read by the walker",
		},
	)

	WalkerFilesQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_viewer_walker_files_queued_total",
			Help: "Total number of files pushed onto the queue by the walker",
		},
	)

	WalkerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_viewer_walker_errors_total",
			Help: "Total number of directories the walker could not read",
		},
	)

	WalkerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_viewer_walker_running",
			Help: "Whether the walker is currently running (1 = running, 0 = idle)",
		},
	)

	WalkerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_viewer_walker_last_run_duration_seconds",
			Help: "Duration of the last directory walk in seconds",
		},
	)
)

// Fetch metrics
var (
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_fetch_total",
			Help: "Total number of fetch attempts by method and outcome",
		},
		[]string{"method", "status"}, // status: "success", "failed", "cancelled"
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_viewer_fetch_duration_seconds",
			Help:    "Fetch duration in seconds by method",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method"},
	)

	FetchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_viewer_fetch_in_flight",
			Help: "Number of fetches currently running",
		},
	)

	FetchWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_viewer_fetch_workers",
			Help: "Size of the fetch worker pool",
		},
	)

	FetchHelperKills = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_fetch_helper_kills_total",
			Help: "Signals sent to fetch helper processes during cancellation",
		},
		[]string{"signal"}, // "term", "kill"
	)

	ItemsDuplicateDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_viewer_items_duplicate_dropped_total",
			Help: "Items dropped because their key was already claimed",
		},
	)

	ItemsPresented = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_items_presented_total",
			Help: "Items handed to the display by outcome",
		},
		[]string{"kind"}, // "current", "thumbnail", "listed"
	)

	LinksDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_viewer_links_discovered_total",
			Help: "Image links extracted from fetched HTML documents",
		},
	)

	ProgressTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_viewer_progress_total",
			Help: "Current expected item total shown by the progress indicator",
		},
	)

	ProgressDone = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_viewer_progress_done",
			Help: "Items finished so far as shown by the progress indicator",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"decoder", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_viewer_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"decoder"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_viewer_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_viewer_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailCacheStale = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_viewer_thumbnail_cache_stale_total",
			Help: "Cached thumbnails rejected because the source changed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_viewer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_viewer_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_filesystem_operation_errors_total",
			Help: "Failed filesystem operations by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_filesystem_retry_attempts_total",
			Help: "Retries performed after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_filesystem_retry_failures_total",
			Help: "Operations that still failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_filesystem_stale_errors_total",
			Help: "Stale file handle errors seen",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_viewer_filesystem_retry_duration_seconds",
			Help:    "Total time spent in a retried filesystem operation",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Status server metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_viewer_http_requests_total",
			Help: "Total number of requests to the status server",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_viewer_http_request_duration_seconds",
			Help:    "Status server request duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_viewer_http_requests_in_flight",
			Help: "Number of status server requests currently being processed",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "image_viewer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
