package queue

import (
	"container/list"
	"context"
	"sync"

	"image-viewer/internal/item"
	"image-viewer/internal/metrics"
)

// Queue is a multi-producer, multi-consumer work queue of items with a live
// reference count.
//
// The active count starts at the number of producers that will ever push,
// grows by one with every Push and shrinks by one with every Done. Once it
// reaches zero with nothing left to hand out, the queue is exhausted for
// good and every Pop returns false.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	fifo   *list.List
	seen   []*item.Item
	active int
}

// New creates a queue with producers reservations on the active count.
func New(producers int) *Queue {
	if producers < 0 {
		producers = 0
	}
	q := &Queue{
		fifo:   list.New(),
		active: producers,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends it to the queue and wakes one waiting consumer.
//
// Pushing requires a live reservation: either an outstanding producer or an
// item that has been popped but not yet marked done. Pushing into an
// exhausted queue panics.
func (q *Queue) Push(it *item.Item) {
	q.mu.Lock()
	if q.active == 0 {
		q.mu.Unlock()
		panic("queue: push after exhaustion")
	}
	q.seen = append(q.seen, it)
	q.fifo.PushBack(it)
	q.active++
	q.updateGauges()
	q.mu.Unlock()

	q.cond.Signal()
}

// Pop blocks until an item is available or the queue is exhausted. It
// returns false on exhaustion and whenever ctx is cancelled, even with items
// still queued. Every item is delivered to exactly one caller.
func (q *Queue) Pop(ctx context.Context) (*item.Item, bool) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return nil, false
		}
		if q.fifo.Len() > 0 || q.active == 0 {
			break
		}
		q.cond.Wait()
	}

	front := q.fifo.Front()
	if front == nil {
		return nil, false
	}
	q.fifo.Remove(front)
	q.updateGauges()
	return front.Value.(*item.Item), true
}

// Done releases one reservation, either a producer finishing or a popped
// item reaching its final state. The count never drops below zero.
func (q *Queue) Done() {
	q.mu.Lock()
	if q.active > 0 {
		q.active--
	}
	q.updateGauges()
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Items returns every item ever pushed, in push order. Callers use it for
// final cleanup once Pop has reported exhaustion.
func (q *Queue) Items() []*item.Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*item.Item, len(q.seen))
	copy(out, q.seen)
	return out
}

// Len returns the number of items waiting to be popped.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fifo.Len()
}

// Active returns the current active count.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Exhausted reports whether no item will ever be handed out again.
func (q *Queue) Exhausted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fifo.Len() == 0 && q.active == 0
}

func (q *Queue) updateGauges() {
	metrics.QueueDepth.Set(float64(q.fifo.Len()))
	metrics.QueueActive.Set(float64(q.active))
}
