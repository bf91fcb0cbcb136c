package workers

import (
	"context"
	"sync"

	"image-viewer/internal/logging"
)

// Task is a unit of work run by a Pool worker.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed number of goroutines.
//
// Submit never blocks: tasks beyond the worker count wait in an unbounded
// FIFO. Stop drops whatever is still waiting and returns once the tasks
// already running have finished. Close lets the backlog drain first.
type Pool struct {
	name string
	ctx  context.Context

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Task
	running int
	closing bool
	stopped bool

	wg sync.WaitGroup
}

// NewPool starts size workers. Tasks receive ctx; cancelling it is how a
// caller asks running tasks to finish early.
func NewPool(ctx context.Context, name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{name: name, ctx: ctx}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	logging.Debug("Worker pool %s started with %d workers", name, size)
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.closing && !p.stopped {
			p.cond.Wait()
		}
		if p.stopped || len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.pending[0]
		p.pending[0] = nil
		p.pending = p.pending[1:]
		p.running++
		p.mu.Unlock()

		task(p.ctx)

		p.mu.Lock()
		p.running--
		p.mu.Unlock()
	}
}

// Submit queues task for execution. It returns false if the pool no longer
// accepts work.
func (p *Pool) Submit(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.closing {
		return false
	}
	p.pending = append(p.pending, task)
	p.cond.Signal()
	return true
}

// Stop discards every task that has not started, waits for running tasks
// and returns the number of discarded tasks.
func (p *Pool) Stop() int {
	p.mu.Lock()
	dropped := len(p.pending)
	p.pending = nil
	p.stopped = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	if dropped > 0 {
		logging.Debug("Worker pool %s stopped, dropped %d pending tasks", p.name, dropped)
	}
	return dropped
}

// Close stops accepting tasks and waits until every queued task has run.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closing = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

// Pending returns the number of tasks waiting for a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
