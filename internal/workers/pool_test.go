package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllTasks(t *testing.T) {
	t.Parallel()

	p := NewPool(context.Background(), "test", 3)

	var ran atomic.Int32
	for i := 0; i < 50; i++ {
		if !p.Submit(func(context.Context) { ran.Add(1) }) {
			t.Fatal("Submit() rejected a task on a live pool")
		}
	}
	p.Close()

	if ran.Load() != 50 {
		t.Errorf("ran %d tasks, want 50", ran.Load())
	}
	if p.Submit(func(context.Context) {}) {
		t.Error("Submit() after Close() should be rejected")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const size = 3
	p := NewPool(context.Background(), "test", size)

	var current, peak atomic.Int32
	for i := 0; i < 20; i++ {
		p.Submit(func(context.Context) {
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		})
	}
	p.Close()

	if peak.Load() > size {
		t.Errorf("peak concurrency %d exceeds pool size %d", peak.Load(), size)
	}
	if peak.Load() < 2 {
		t.Errorf("peak concurrency %d, expected tasks to overlap", peak.Load())
	}
}

func TestPoolSubmitDoesNotBlock(t *testing.T) {
	t.Parallel()

	p := NewPool(context.Background(), "test", 1)
	release := make(chan struct{})
	p.Submit(func(context.Context) { <-release })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			p.Submit(func(context.Context) {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit() blocked while the only worker was busy")
	}
	if p.Pending() != 100 {
		t.Errorf("Pending() = %d, want 100", p.Pending())
	}
	close(release)
	p.Close()
}

func TestPoolStopDropsPendingAndWaitsForRunning(t *testing.T) {
	t.Parallel()

	p := NewPool(context.Background(), "test", 2)

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var finished atomic.Int32
	for i := 0; i < 2; i++ {
		p.Submit(func(context.Context) {
			started <- struct{}{}
			<-release
			finished.Add(1)
		})
	}
	<-started
	<-started

	var lateRan atomic.Bool
	for i := 0; i < 5; i++ {
		p.Submit(func(context.Context) { lateRan.Store(true) })
	}
	if p.Running() != 2 {
		t.Errorf("Running() = %d, want 2", p.Running())
	}

	stopped := make(chan int, 1)
	go func() { stopped <- p.Stop() }()

	select {
	case <-stopped:
		t.Fatal("Stop() returned before in-flight tasks finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case dropped := <-stopped:
		if dropped != 5 {
			t.Errorf("Stop() dropped %d tasks, want 5", dropped)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return")
	}

	if finished.Load() != 2 {
		t.Errorf("%d in-flight tasks finished, want 2", finished.Load())
	}
	if lateRan.Load() {
		t.Error("a pending task ran after Stop()")
	}
	if p.Submit(func(context.Context) {}) {
		t.Error("Submit() after Stop() should be rejected")
	}
}

func TestPoolTasksSeeContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, "test", 1)

	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(func(ctx context.Context) {
		defer wg.Done()
		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
			t.Error("task did not observe cancellation")
		}
	})

	cancel()
	wg.Wait()
	p.Stop()
}

func TestNewPoolClampsSize(t *testing.T) {
	t.Parallel()

	p := NewPool(context.Background(), "test", 0)
	done := make(chan struct{})
	p.Submit(func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool created with size 0 never ran a task")
	}
	p.Stop()
}
