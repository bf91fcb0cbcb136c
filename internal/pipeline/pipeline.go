package pipeline

import (
	"context"
	"errors"
	"sync"

	"image-viewer/internal/fetch"
	"image-viewer/internal/indexer"
	"image-viewer/internal/item"
	"image-viewer/internal/logging"
	"image-viewer/internal/metrics"
	"image-viewer/internal/queue"
	"image-viewer/internal/viewer"
)

// ErrAlreadyRun is returned by Run on a pipeline that has been run before.
var ErrAlreadyRun = errors.New("pipeline already run")

// Config configures one run.
type Config struct {
	Walker      indexer.WalkerConfig
	Coordinator fetch.Config
}

// DefaultConfig returns the default run configuration
func DefaultConfig() Config {
	return Config{
		Walker:      indexer.DefaultWalkerConfig(),
		Coordinator: fetch.DefaultConfig(),
	}
}

// Deps are the collaborators of a run.
type Deps struct {
	Fetcher   fetch.Fetcher
	Extractor fetch.Extractor
	// Thumbs may be nil.
	Thumbs fetch.ThumbnailProvider
	Viewer *viewer.Session
}

// Status is a snapshot of a run for the status endpoint.
type Status struct {
	Viewer  viewer.Snapshot      `json:"viewer"`
	Walker  indexer.WalkProgress `json:"walker"`
	Fetch   fetch.Stats          `json:"fetch"`
	Queued  int                  `json:"queued"`
	Active  int                  `json:"active"`
	Running bool                 `json:"running"`
}

// Pipeline wires a work queue, a walker and a fetch coordinator for a single
// run over an argument list.
type Pipeline struct {
	config Config
	deps   Deps
	log    logging.Component

	queue       *queue.Queue
	walker      *indexer.Walker
	coordinator *fetch.Coordinator

	mu      sync.Mutex
	started bool
	running bool
}

// New creates a pipeline. Nothing runs until Run is called.
func New(config Config, deps Deps) *Pipeline {
	if deps.Extractor == nil {
		deps.Extractor = fetch.HTMLExtractor
	}

	// The walker is the only producer; discovered links are pushed under
	// the reservation of the document they were found in.
	q := queue.New(1)

	return &Pipeline{
		config: config,
		deps:   deps,
		log:    logging.For("pipeline"),
		queue:  q,
		walker: indexer.NewWalker(q, deps.Viewer, config.Walker),
		coordinator: fetch.NewCoordinator(q, config.Coordinator,
			deps.Fetcher, deps.Extractor, deps.Viewer, deps.Viewer, deps.Thumbs),
	}
}

// Run acquires everything args name and returns when the queue is exhausted
// or ctx is cancelled. The initial progress total is the number of arguments
// that are not directories; the walker adds directory contents as it finds
// them.
func (p *Pipeline) Run(ctx context.Context, args []string) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyRun
	}
	p.started = true
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.deps.Viewer.SetTotal(uint(indexer.CountSingleItems(args, p.config.Walker.Retry)))
	p.log.Info("Loading %d arguments (recursive: %v)", len(args), p.config.Walker.Recursive)

	p.walker.Start(ctx, args)
	p.coordinator.Start(ctx)

	p.coordinator.Wait()
	p.walker.Wait()

	stats := p.coordinator.Stats()
	p.log.Info("Run finished: %d loaded, %d failed, %d duplicates",
		stats.Completed, stats.Failed, stats.Duplicates)
	return ctx.Err()
}

// Stop ends a run early. Items already loaded stay loaded.
func (p *Pipeline) Stop() {
	p.walker.Stop()
	p.coordinator.Stop()
}

// Items returns every item the run has queued.
func (p *Pipeline) Items() []*item.Item {
	return p.queue.Items()
}

// Close removes the temporary copies of every queued item. Call it after
// Run has returned.
func (p *Pipeline) Close() error {
	return p.deps.Viewer.Close(p.queue.Items())
}

// Status returns a snapshot of the run.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	return Status{
		Viewer:  p.deps.Viewer.Snapshot(),
		Walker:  p.walker.Progress(),
		Fetch:   p.coordinator.Stats(),
		Queued:  p.queue.Len(),
		Active:  p.queue.Active(),
		Running: running,
	}
}

// GetStats implements metrics.StatsProvider.
func (p *Pipeline) GetStats() metrics.Stats {
	fs := p.coordinator.Stats()
	return metrics.Stats{
		Total:     p.deps.Viewer.Total(),
		Done:      p.deps.Viewer.Done(),
		Queued:    p.queue.Len(),
		Active:    p.queue.Active(),
		Known:     fs.Claimed,
		Presented: int(fs.Completed),
	}
}
