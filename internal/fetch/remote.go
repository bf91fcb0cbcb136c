package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"image-viewer/internal/item"
	"image-viewer/internal/logging"
	"image-viewer/internal/metrics"
)

// tempPrefix is prepended to every temporary file name.
const tempPrefix = "image-viewer-"

// FetcherConfig configures the remote fetcher
type FetcherConfig struct {
	// Helper is the download program, invoked as: Helper -O <temp> <url>.
	Helper string
	// Env is appended to the process environment of the helper.
	Env []string
	// TempDir receives the temporary copies. Empty means os.TempDir().
	TempDir string
	// PollInterval is how long a helper gets to exit after SIGTERM before
	// the fetcher starts waiting for KillWait.
	PollInterval time.Duration
	// KillWait is the additional grace period before SIGKILL.
	KillWait time.Duration
	// Stdin is read when an item names standard input.
	Stdin io.Reader
}

// DefaultFetcherConfig returns the wget based configuration
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Helper:       "wget",
		PollInterval: 50 * time.Millisecond,
		KillWait:     500 * time.Millisecond,
		Stdin:        os.Stdin,
	}
}

// RemoteFetcher downloads remote items with an external helper and copies
// standard input into a temporary file.
type RemoteFetcher struct {
	config FetcherConfig
	log    logging.Component

	stdinMu sync.Mutex
}

// NewRemoteFetcher creates a fetcher. Zero durations fall back to the
// defaults.
func NewRemoteFetcher(config FetcherConfig) *RemoteFetcher {
	defaults := DefaultFetcherConfig()
	if config.Helper == "" {
		config.Helper = defaults.Helper
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.KillWait <= 0 {
		config.KillWait = defaults.KillWait
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	return &RemoteFetcher{
		config: config,
		log:    logging.For("fetch"),
	}
}

// Fetch makes the content of it available at it.Path(). Items that no
// longer need fetching return nil immediately.
//
// On failure the temporary file is removed and the item still needs
// fetching. Errors wrap ErrHelperFailed or ErrCancelled where they apply.
func (f *RemoteFetcher) Fetch(ctx context.Context, it *item.Item) error {
	if !it.NeedsFetch() {
		return nil
	}

	method := it.Method().String()
	start := time.Now()
	metrics.FetchInFlight.Inc()
	defer metrics.FetchInFlight.Dec()

	err := f.fetch(ctx, it)

	status := metrics.StatusSuccess
	switch {
	case errors.Is(err, ErrCancelled):
		status = metrics.StatusCancelled
	case err != nil:
		status = metrics.StatusFailed
	}
	metrics.FetchTotal.WithLabelValues(method, status).Inc()
	metrics.FetchDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	return err
}

func (f *RemoteFetcher) fetch(ctx context.Context, it *item.Item) error {
	url := it.OriginalPath()

	if ctx.Err() != nil {
		return fmt.Errorf("%w: %s", ErrCancelled, url)
	}

	file, err := f.createTemp()
	if err != nil {
		return fmt.Errorf("failed to allocate temporary file for %s: %w", url, err)
	}
	it.AttachTemp(file.Name())

	if it.Method() == item.MethodStdin {
		err = f.copyStdin(ctx, file)
	} else {
		// The helper opens the path itself.
		if cerr := file.Close(); cerr != nil {
			err = fmt.Errorf("failed to close temporary file %s: %w", file.Name(), cerr)
		} else {
			err = f.runHelper(ctx, file.Name(), url)
		}
	}

	if err != nil {
		if rerr := it.CloseTemp(); rerr != nil {
			f.log.Warn("%v", rerr)
		}
		return err
	}

	it.MarkFetched()
	f.log.Debug("Fetched %s to %s", url, file.Name())
	return nil
}

// createTemp creates a new, empty temporary file that did not exist before.
func (f *RemoteFetcher) createTemp() (*os.File, error) {
	for attempt := 0; attempt < 3; attempt++ {
		name := filepath.Join(f.config.TempDir, tempPrefix+uuid.NewString())
		file, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("could not find a free temporary name in %s", f.config.TempDir)
}

// copyStdin copies standard input into file. On cancellation it returns at
// once and leaves the copy to finish in the background; the copy owns file
// and closes it.
func (f *RemoteFetcher) copyStdin(ctx context.Context, file *os.File) error {
	if f.config.Stdin == nil {
		file.Close()
		return errors.New("no standard input configured")
	}

	copied := make(chan error, 1)
	go func() {
		f.stdinMu.Lock()
		defer f.stdinMu.Unlock()
		_, err := io.Copy(file, f.config.Stdin)
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", file.Name(), cerr)
		}
		copied <- err
	}()

	select {
	case err := <-copied:
		return stdinResult(err)
	case <-ctx.Done():
		// A copy that finished at the same moment still counts.
		select {
		case err := <-copied:
			return stdinResult(err)
		default:
		}
		return fmt.Errorf("%w: %s", ErrCancelled, item.StdinPath)
	}
}

func stdinResult(err error) error {
	if err != nil {
		return fmt.Errorf("failed to copy standard input: %w", err)
	}
	return nil
}

// runHelper runs the download helper to completion, or terminates it when
// ctx is cancelled.
func (f *RemoteFetcher) runHelper(ctx context.Context, dst, url string) error {
	cmd := exec.Command(f.config.Helper, "-O", dst, url)
	if len(f.config.Env) > 0 {
		cmd.Env = append(os.Environ(), f.config.Env...)
	}
	// Stdout and Stderr stay nil so the helper writes to the null device.

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to start %s: %w", ErrHelperFailed, f.config.Helper, err)
	}
	f.log.Debug("Started %s (pid %d) for %s", f.config.Helper, cmd.Process.Pid, url)

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	return f.awaitHelper(ctx, url, exited, func() { f.terminate(cmd, exited) })
}

// awaitHelper waits for the helper's exit status on exited, or calls kill on
// cancellation. A clean exit that races with cancellation keeps the
// download.
func (f *RemoteFetcher) awaitHelper(ctx context.Context, url string, exited <-chan error, kill func()) error {
	select {
	case err := <-exited:
		return f.helperResult(url, err)
	case <-ctx.Done():
	}

	select {
	case err := <-exited:
		if err == nil {
			return nil
		}
	default:
		kill()
	}
	return fmt.Errorf("%w: %s", ErrCancelled, url)
}

func (f *RemoteFetcher) helperResult(url string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s for %s: %w", ErrHelperFailed, f.config.Helper, url, err)
	}
	return nil
}

// terminate asks the helper to exit with SIGTERM and escalates to SIGKILL
// when it does not exit within PollInterval plus KillWait. It returns once
// the process has been reaped.
func (f *RemoteFetcher) terminate(cmd *exec.Cmd, exited <-chan error) {
	pid := cmd.Process.Pid
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		f.log.Debug("SIGTERM to pid %d failed: %v", pid, err)
	}
	metrics.FetchHelperKills.WithLabelValues("term").Inc()

	for _, wait := range []time.Duration{f.config.PollInterval, f.config.KillWait} {
		select {
		case <-exited:
			return
		case <-time.After(wait):
		}
	}

	f.log.Warn("Helper pid %d ignored SIGTERM, killing it", pid)
	if err := cmd.Process.Kill(); err != nil {
		f.log.Debug("SIGKILL to pid %d failed: %v", pid, err)
	}
	metrics.FetchHelperKills.WithLabelValues("kill").Inc()
	<-exited
}
