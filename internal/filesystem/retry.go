package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"image-viewer/internal/logging"
)

// RetryConfig bounds how long a stale NFS handle is retried. Attempts run
// MaxRetries+1 times at most, sleeping InitialBackoff and then twice as long
// each round up to MaxBackoff.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver labels events. Nil falls back to the resolver
	// installed with SetDefaultVolumeResolver.
	VolumeResolver *VolumeResolver
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c RetryConfig) volumeFor(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Load().Resolve(path)
}

// isStale reports an ESTALE anywhere in err's chain.
func isStale(err error) bool {
	return errors.Is(err, syscall.ESTALE)
}

// withRetry calls fn until it succeeds, fails with anything but ESTALE, or
// exhausts config. Every call ends with exactly one EventDone.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	ev := Event{Op: op, Volume: config.volumeFor(path)}
	send := func(kind EventKind) {
		ev.Kind = kind
		emit(ev)
	}
	delay := config.InitialBackoff

	for attempt := 0; ; attempt++ {
		v, err := fn()
		switch {
		case err == nil && attempt > 0:
			logging.Info("%s %s recovered after %d stale handle retries", op, path, attempt)
			send(EventRecovered)
		case err != nil && isStale(err):
			send(EventStale)
		}

		if err == nil || !isStale(err) || attempt == config.MaxRetries {
			if err != nil && isStale(err) {
				logging.Warn("%s %s still stale after %d retries: %v", op, path, attempt, err)
				send(EventGaveUp)
			}
			ev.Elapsed, ev.Err = time.Since(start), err
			send(EventDone)
			return v, err
		}

		send(EventRetry)
		logging.Debug("%s %s: stale handle, retry %d/%d in %v", op, path, attempt+1, config.MaxRetries, delay)
		time.Sleep(delay)
		delay = min(2*delay, config.MaxBackoff)
	}
}

// StatWithRetry is os.Stat retried on stale NFS handles.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry is os.Open retried on stale NFS handles.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadDirWithRetry is os.ReadDir retried on stale NFS handles. Entries come
// back sorted by name.
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}
