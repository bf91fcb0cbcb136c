// Package metrics provides Prometheus instrumentation for the image viewer.
//
// All metrics are prefixed with "image_viewer_" and registered with the
// default registry through promauto. They are exposed on /metrics when
// METRICS_ENABLED is set.
//
// # Metric Categories
//
// ## Work Queue
//
//   - QueueDepth: Gauge of items waiting to be popped
//   - QueueActive: Gauge of the live reference count
//
// ## Walker
//
//   - WalkerRunsTotal, WalkerDirectoriesScanned, WalkerFilesQueued
//   - WalkerErrors: Counter of unreadable directories
//   - WalkerIsRunning, WalkerLastRunDuration
//
// ## Fetch
//
//   - FetchTotal: Counter by method (stdin/http/ftp) and status
//   - FetchDuration: Histogram by method
//   - FetchInFlight, FetchWorkers
//   - FetchHelperKills: Counter of SIGTERM/SIGKILL sent to helper processes
//   - ItemsDuplicateDropped, ItemsPresented, LinksDiscovered
//   - ProgressTotal, ProgressDone: updated by [Collector]
//
// ## Thumbnails and Database
//
//   - ThumbnailGenerationsTotal, ThumbnailGenerationDuration by decoder
//   - ThumbnailCacheHits, ThumbnailCacheMisses, ThumbnailCacheStale
//   - DBQueryTotal, DBQueryDuration
//
// ## Filesystem
//
// Recorded through the [filesystem.Observer] returned by
// NewFilesystemObserver, labelled by volume (source, temp, cache).
//
// # Collector
//
// [Collector] polls a [StatsProvider], normally the viewer session, and
// mirrors its progress counters into gauges:
//
//	collector := metrics.NewCollector(session, 5*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Fetch failure ratio:
//
//	sum(rate(image_viewer_fetch_total{status="failed"}[5m])) /
//	sum(rate(image_viewer_fetch_total[5m]))
//
// Thumbnail cache hit rate:
//
//	rate(image_viewer_thumbnail_cache_hits_total[5m]) /
//	(rate(image_viewer_thumbnail_cache_hits_total[5m]) + rate(image_viewer_thumbnail_cache_misses_total[5m]))
package metrics
