package metrics

import "image-viewer/internal/filesystem"

type filesystemObserver struct{}

// NewFilesystemObserver returns a filesystem.Observer that records into the
// filesystem collectors of this package.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) Observe(e filesystem.Event) {
	switch e.Kind {
	case filesystem.EventDone:
		seconds := e.Elapsed.Seconds()
		FilesystemOperationDuration.WithLabelValues(e.Volume, e.Op).Observe(seconds)
		FilesystemRetryDuration.WithLabelValues(e.Op, e.Volume).Observe(seconds)
		if e.Err != nil {
			FilesystemOperationErrors.WithLabelValues(e.Volume, e.Op).Inc()
		}
	case filesystem.EventStale:
		FilesystemStaleErrors.WithLabelValues(e.Op, e.Volume).Inc()
	case filesystem.EventRetry:
		FilesystemRetryAttempts.WithLabelValues(e.Op, e.Volume).Inc()
	case filesystem.EventRecovered:
		FilesystemRetrySuccess.WithLabelValues(e.Op, e.Volume).Inc()
	case filesystem.EventGaveUp:
		FilesystemRetryFailures.WithLabelValues(e.Op, e.Volume).Inc()
	}
}
