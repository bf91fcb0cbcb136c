package indexer

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"image-viewer/internal/filesystem"
	"image-viewer/internal/item"
	"image-viewer/internal/logging"
	"image-viewer/internal/metrics"
	"image-viewer/internal/queue"
)

// UnlimitedLevels descends into every subdirectory.
const UnlimitedLevels = -1

// FileCounter receives the number of files found in each scanned directory.
type FileCounter interface {
	AddToTotal(n int)
}

// WalkerConfig configures the directory walker
type WalkerConfig struct {
	// Recursive enables descending into directory arguments. Without it,
	// directory arguments are skipped.
	Recursive bool
	// Levels bounds the descent: 0 lists only the files of a directory
	// argument, n descends n further levels, UnlimitedLevels has no bound.
	Levels int
	// Retry is used for every stat and readdir.
	Retry filesystem.RetryConfig
}

// DefaultWalkerConfig returns a non-recursive configuration with unlimited
// depth once recursion is turned on.
func DefaultWalkerConfig() WalkerConfig {
	return WalkerConfig{
		Recursive: false,
		Levels:    UnlimitedLevels,
		Retry:     filesystem.DefaultRetryConfig(),
	}
}

// WalkProgress reports what the walker has done so far.
type WalkProgress struct {
	Running      bool      `json:"running"`
	Directories  int64     `json:"directories"`
	FilesQueued  int64     `json:"filesQueued"`
	Errors       int64     `json:"errors"`
	StartedAt    time.Time `json:"startedAt,omitempty"`
	FinishedAt   time.Time `json:"finishedAt,omitempty"`
	ElapsedMilli int64     `json:"elapsedMs"`
}

// Walker expands the argument list into work items on a queue.
//
// It holds one producer reservation on the queue and releases it exactly
// once, when the walk finishes or is stopped.
type Walker struct {
	queue   *queue.Queue
	counter FileCounter
	config  WalkerConfig
	log     logging.Component

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopped  bool
	done     chan struct{}
	started  time.Time
	finished time.Time
	running  atomic.Bool
	release  sync.Once

	dirsScanned atomic.Int64
	filesQueued atomic.Int64
	errorsCount atomic.Int64
}

// NewWalker creates a walker that pushes onto q and reports per-directory
// file counts to counter. counter may be nil.
func NewWalker(q *queue.Queue, counter FileCounter, config WalkerConfig) *Walker {
	return &Walker{
		queue:   q,
		counter: counter,
		config:  config,
		log:     logging.For("walker"),
		done:    make(chan struct{}),
	}
}

// Start walks args on a new goroutine.
func (w *Walker) Start(ctx context.Context, args []string) {
	ctx = w.prepare(ctx)
	go func() {
		defer close(w.done)
		w.walk(ctx, args)
	}()
}

// Run walks args on the calling goroutine.
func (w *Walker) Run(ctx context.Context, args []string) {
	ctx = w.prepare(ctx)
	defer close(w.done)
	w.walk(ctx, args)
}

func (w *Walker) prepare(ctx context.Context) context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	ctx, w.cancel = context.WithCancel(ctx)
	if w.stopped {
		w.cancel()
	}
	return ctx
}

// Stop asks the walker to finish early. Items already pushed stay queued.
func (w *Walker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.cancel != nil {
		w.cancel()
	}
}

// Wait blocks until a started walk has finished.
func (w *Walker) Wait() {
	<-w.done
}

// Done returns a channel closed when the walk has finished.
func (w *Walker) Done() <-chan struct{} {
	return w.done
}

// Progress returns the current walk statistics.
func (w *Walker) Progress() WalkProgress {
	w.mu.Lock()
	started, finished := w.started, w.finished
	w.mu.Unlock()

	p := WalkProgress{
		Running:     w.running.Load(),
		Directories: w.dirsScanned.Load(),
		FilesQueued: w.filesQueued.Load(),
		Errors:      w.errorsCount.Load(),
		StartedAt:   started,
		FinishedAt:  finished,
	}
	switch {
	case !finished.IsZero():
		p.ElapsedMilli = finished.Sub(started).Milliseconds()
	case !started.IsZero():
		p.ElapsedMilli = time.Since(started).Milliseconds()
	}
	return p
}

func (w *Walker) walk(ctx context.Context, args []string) {
	defer w.release.Do(w.queue.Done)

	startTime := time.Now()
	w.mu.Lock()
	w.started = startTime
	w.mu.Unlock()
	w.running.Store(true)
	metrics.WalkerRunsTotal.Inc()
	metrics.WalkerIsRunning.Set(1)

	defer func() {
		w.running.Store(false)
		w.mu.Lock()
		w.finished = time.Now()
		w.mu.Unlock()
		metrics.WalkerIsRunning.Set(0)
		metrics.WalkerLastRunDuration.Set(time.Since(startTime).Seconds())
		w.log.Debug("Walk complete: %d files, %d directories in %v (errors: %d)",
			w.filesQueued.Load(), w.dirsScanned.Load(), time.Since(startTime), w.errorsCount.Load())
	}()

	for _, arg := range args {
		if ctx.Err() != nil {
			w.log.Debug("Walk stopped before %s", arg)
			return
		}

		if !w.isDir(arg) {
			w.push(arg)
			continue
		}
		if !w.config.Recursive {
			w.log.Warn("Skipping directory %s: recursion is disabled", arg)
			continue
		}
		w.walkDir(ctx, arg, w.config.Levels)
	}
}

// isDir reports whether arg names a directory. Remote items and standard
// input never do.
func (w *Walker) isDir(arg string) bool {
	if item.Classify(arg) != item.MethodLocal {
		return false
	}
	info, err := filesystem.StatWithRetry(arg, w.config.Retry)
	return err == nil && info.IsDir()
}

func (w *Walker) push(path string) {
	w.queue.Push(item.New(path))
	w.filesQueued.Add(1)
	metrics.WalkerFilesQueued.Inc()
}

// walkDir scans one directory. Subdirectories are descended as they are
// met; the regular files of dir are pushed afterwards in byte order and
// reported to the counter in a single call.
func (w *Walker) walkDir(ctx context.Context, dir string, levels int) {
	entries, err := filesystem.ReadDirWithRetry(dir, w.config.Retry)
	if err != nil {
		w.log.Warn("Cannot read directory %s: %v", dir, err)
		w.errorsCount.Add(1)
		metrics.WalkerErrors.Inc()
		return
	}
	w.dirsScanned.Add(1)
	metrics.WalkerDirectoriesScanned.Inc()

	next := levels
	if levels > 0 {
		next = levels - 1
	}

	var files []string
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		full := filepath.Join(dir, entry.Name())
		mode := entry.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := filesystem.StatWithRetry(full, w.config.Retry)
			if err != nil {
				w.log.Debug("Skipping dangling link %s: %v", full, err)
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if levels != 0 {
				w.walkDir(ctx, full, next)
			}
		case mode.IsRegular():
			files = append(files, full)
		}
	}

	sort.Strings(files)

	pushed := 0
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		w.push(f)
		pushed++
	}

	if w.counter != nil {
		w.counter.AddToTotal(pushed)
	}
	w.log.Debug("Scanned %s: %d files", dir, pushed)
}

// CountSingleItems returns how many arguments will be queued as single items
// rather than expanded as directories.
func CountSingleItems(args []string, retry filesystem.RetryConfig) int {
	n := 0
	for _, arg := range args {
		if item.Classify(arg) != item.MethodLocal {
			n++
			continue
		}
		info, err := filesystem.StatWithRetry(arg, retry)
		if err != nil || !info.IsDir() {
			n++
		}
	}
	return n
}
