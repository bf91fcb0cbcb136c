package metrics

// Label values used by the pipeline. They are exported so callers and
// InitializeMetrics agree on the exact strings.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// FetchMethods lists the acquisition methods recorded in fetch metrics.
var FetchMethods = []string{"stdin", "http", "ftp"}

// Volumes lists the volume labels used for filesystem metrics.
var Volumes = []string{"source", "temp", "cache", "unknown"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, m := range FetchMethods {
		for _, s := range []string{StatusSuccess, StatusFailed, StatusCancelled} {
			FetchTotal.WithLabelValues(m, s)
		}
		FetchDuration.WithLabelValues(m)
	}

	for _, sig := range []string{"term", "kill"} {
		FetchHelperKills.WithLabelValues(sig)
	}

	for _, kind := range []string{"current", "thumbnail", "listed"} {
		ItemsPresented.WithLabelValues(kind)
	}

	for _, decoder := range []string{"vips", "imaging", "stdlib"} {
		ThumbnailGenerationsTotal.WithLabelValues(decoder, StatusSuccess)
		ThumbnailGenerationsTotal.WithLabelValues(decoder, StatusFailed)
		ThumbnailGenerationDuration.WithLabelValues(decoder)
	}

	fsOps := []string{"stat", "readdir", "open"}
	for _, vol := range Volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"initialize_schema", "get_thumbnail", "upsert_thumbnail", "delete_thumbnail", "count_thumbnails", "list_thumbnails", "clear_thumbnails"} {
		DBQueryTotal.WithLabelValues(op, StatusSuccess)
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
