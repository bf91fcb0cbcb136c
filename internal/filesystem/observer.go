package filesystem

import (
	"sync/atomic"
	"time"
)

// EventKind classifies an Event.
type EventKind int

const (
	// EventDone ends every operation, successful or not.
	EventDone EventKind = iota
	// EventStale reports an ESTALE result from one attempt.
	EventStale
	// EventRetry reports that another attempt is about to start.
	EventRetry
	// EventRecovered reports success after at least one retry.
	EventRecovered
	// EventGaveUp reports that the retries ran out.
	EventGaveUp
)

// Event describes one step of a retried filesystem operation.
type Event struct {
	Kind   EventKind
	Op     string // stat, open, readdir
	Volume string
	// Elapsed and Err are set on EventDone only.
	Elapsed time.Duration
	Err     error
}

// Observer receives filesystem events. The metrics package provides the
// Prometheus implementation.
type Observer interface {
	Observe(Event)
}

type observerBox struct{ o Observer }

var observer atomic.Pointer[observerBox]

// SetObserver installs the package-level observer. nil disables recording.
func SetObserver(o Observer) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&observerBox{o})
}

func emit(e Event) {
	if box := observer.Load(); box != nil {
		box.o.Observe(e)
	}
}
