package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"image-viewer/internal/item"
	"image-viewer/internal/logging"
	"image-viewer/internal/mediatypes"
	"image-viewer/internal/metrics"
	"image-viewer/internal/queue"
	"image-viewer/internal/workers"
)

// State is the lifecycle state of a Coordinator.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config configures the fetch coordinator
type Config struct {
	// Workers is the number of concurrent fetches.
	Workers int
	// ThumbnailWorkers is the number of concurrent thumbnail generations.
	ThumbnailWorkers int
}

// DefaultConfig returns the default coordinator configuration
func DefaultConfig() Config {
	return Config{
		Workers:          workers.DefaultFetchWorkers,
		ThumbnailWorkers: workers.ForCPU(4),
	}
}

// Stats is a snapshot of coordinator counters.
type Stats struct {
	State      string `json:"state"`
	Claimed    int    `json:"claimed"`
	Completed  int64  `json:"completed"`
	Failed     int64  `json:"failed"`
	Duplicates int64  `json:"duplicates"`
	Discovered int64  `json:"discovered"`
	Pending    int    `json:"pending"`
	Running    int    `json:"running"`
}

// Coordinator drains the work queue. Items that are already local complete
// straight away; items that need fetching are deduplicated by key and
// handed to a bounded pool of fetch workers. Fetched documents that are not
// images are scanned for image links, which go back onto the queue.
//
// Every popped item is released with exactly one queue Done once its outcome
// is known, so the queue reaches exhaustion only after all discovered work
// has finished.
type Coordinator struct {
	queue     *queue.Queue
	config    Config
	fetcher   Fetcher
	extractor Extractor
	progress  ProgressSink
	display   DisplaySink
	thumbs    ThumbnailProvider
	session   *Session
	log       logging.Component

	state     atomic.Int32
	presented atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}

	fetchPool *workers.Pool
	thumbPool *workers.Pool

	completed  atomic.Int64
	failed     atomic.Int64
	duplicates atomic.Int64
	discovered atomic.Int64
}

// NewCoordinator creates a coordinator. thumbs may be nil, in which case no
// thumbnails are produced.
func NewCoordinator(
	q *queue.Queue,
	config Config,
	fetcher Fetcher,
	extractor Extractor,
	progress ProgressSink,
	display DisplaySink,
	thumbs ThumbnailProvider,
) *Coordinator {
	if config.Workers < 1 {
		config.Workers = workers.DefaultFetchWorkers
	}
	if config.ThumbnailWorkers < 1 {
		config.ThumbnailWorkers = 1
	}
	return &Coordinator{
		queue:     q,
		config:    config,
		fetcher:   fetcher,
		extractor: extractor,
		progress:  progress,
		display:   display,
		thumbs:    thumbs,
		session:   NewSession(),
		log:       logging.For("coordinator"),
		done:      make(chan struct{}),
	}
}

// Start begins draining the queue on a new goroutine.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	ctx, c.cancel = context.WithCancel(ctx)
	if c.stopped {
		c.cancel()
	}
	c.fetchPool = workers.NewPool(ctx, "fetch", c.config.Workers)
	c.thumbPool = workers.NewPool(ctx, "thumbnail", c.config.ThumbnailWorkers)
	c.mu.Unlock()

	c.presented.Store(false)
	metrics.FetchWorkers.Set(float64(c.config.Workers))
	c.state.Store(int32(StateRunning))

	go c.run(ctx)
}

// Stop cancels outstanding work and waits for the coordinator to finish.
// Fetches that have not started are dropped; running fetches are cancelled
// and waited for.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel == nil {
		c.state.Store(int32(StateStopped))
		return
	}
	cancel()
	c.Wait()
}

// Wait blocks until the coordinator has stopped.
func (c *Coordinator) Wait() {
	<-c.done
}

// Done returns a channel closed when the coordinator has stopped.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Session returns the deduplication session of this run.
func (c *Coordinator) Session() *Session {
	return c.session
}

// Stats returns a snapshot of the coordinator counters.
func (c *Coordinator) Stats() Stats {
	s := Stats{
		State:      c.State().String(),
		Claimed:    c.session.Len(),
		Completed:  c.completed.Load(),
		Failed:     c.failed.Load(),
		Duplicates: c.duplicates.Load(),
		Discovered: c.discovered.Load(),
	}
	c.mu.Lock()
	pool := c.fetchPool
	c.mu.Unlock()
	if pool != nil {
		s.Pending = pool.Pending()
		s.Running = pool.Running()
	}
	return s
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)

	for {
		it, ok := c.queue.Pop(ctx)
		if !ok {
			break
		}
		if ctx.Err() != nil {
			// Stopped between the pop and dispatch.
			c.queue.Done()
			break
		}
		c.dispatch(it)
	}

	c.state.Store(int32(StateDraining))
	if ctx.Err() != nil {
		if dropped := c.fetchPool.Stop(); dropped > 0 {
			c.log.Info("Stopped with %d fetches not started", dropped)
		}
		c.thumbPool.Stop()
	} else {
		c.fetchPool.Close()
		c.thumbPool.Close()
	}

	c.progress.HideProgress()
	c.state.Store(int32(StateStopped))
	c.log.Debug("Finished: %d completed, %d failed, %d duplicates, %d discovered",
		c.completed.Load(), c.failed.Load(), c.duplicates.Load(), c.discovered.Load())
}

func (c *Coordinator) dispatch(it *item.Item) {
	if !it.NeedsFetch() {
		c.complete(it)
		c.queue.Done()
		return
	}

	if !c.session.Claim(it) {
		c.log.Debug("Skipping %s: already claimed", it.OriginalPath())
		c.duplicates.Add(1)
		metrics.ItemsDuplicateDropped.Inc()
		c.progress.AddToTotal(-1)
		c.queue.Done()
		return
	}

	submitted := c.fetchPool.Submit(func(ctx context.Context) {
		defer c.queue.Done()
		c.fetchItem(ctx, it)
	})
	if !submitted {
		c.queue.Done()
	}
}

// fetchItem runs on a fetch worker.
func (c *Coordinator) fetchItem(ctx context.Context, it *item.Item) {
	if err := c.fetcher.Fetch(ctx, it); err != nil {
		if errors.Is(err, ErrCancelled) {
			c.log.Debug("%v", err)
		} else {
			c.log.Warn("Failed to fetch %s: %v", it.OriginalPath(), err)
		}
		c.failed.Add(1)
		c.progress.AddToTotal(-1)
		return
	}

	if mediatypes.IsImage(it.Ext()) {
		c.complete(it)
		return
	}

	urls, err := c.extractor.ExtractFile(it.Path(), it.URI())
	if err != nil {
		c.log.Warn("Failed to scan %s for images: %v", it.OriginalPath(), err)
	}

	added := 0
	if len(urls) > 0 && ctx.Err() == nil {
		added = c.session.PushUnknown(urls, c.queue.Push)
	}
	c.discovered.Add(int64(added))
	metrics.LinksDiscovered.Add(float64(added))
	c.log.Debug("Found %d images in %s, %d new", len(urls), it.OriginalPath(), added)

	// The document itself is replaced by the images it links to.
	c.progress.AddToTotal(added - 1)
}

// complete hands a finished item to the display: the first one of the run
// becomes the current image unless the display shows thumbnails, and every
// one gets a thumbnail.
func (c *Coordinator) complete(it *item.Item) {
	if !c.display.ThumbnailMode() && c.presented.CompareAndSwap(false, true) {
		c.display.PresentAsCurrentImage(it)
		metrics.ItemsPresented.WithLabelValues("current").Inc()
	}

	if c.thumbs != nil {
		c.thumbPool.Submit(func(ctx context.Context) {
			c.addThumbnail(ctx, it)
		})
	}

	c.completed.Add(1)
	metrics.ItemsPresented.WithLabelValues("listed").Inc()
	c.progress.Advance(1)
}

func (c *Coordinator) addThumbnail(ctx context.Context, it *item.Item) {
	thumb, err := c.thumbs.Thumbnail(ctx, it)
	if err != nil {
		c.log.Debug("No thumbnail for %s: %v", it.OriginalPath(), err)
		return
	}
	if thumb == nil {
		return
	}
	c.display.AddThumbnail(it, thumb)
	metrics.ItemsPresented.WithLabelValues("thumbnail").Inc()
}
