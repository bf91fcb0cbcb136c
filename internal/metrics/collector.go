package metrics

import (
	"sync"
	"time"

	"image-viewer/internal/logging"
)

// StatsProvider is polled by a Collector.
type StatsProvider interface {
	GetStats() Stats
}

// Stats is a point-in-time view of the viewer session.
type Stats struct {
	Total     uint
	Done      int
	Queued    int
	Active    int
	Known     int
	Presented int
}

// Collector copies session progress into the progress gauges on a fixed
// interval.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	stop     chan struct{}
	finished chan struct{}
	once     sync.Once
	started  bool
}

func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start polls once right away and then every interval until Stop.
func (c *Collector) Start() {
	c.started = true
	go func() {
		defer close(c.finished)
		t := time.NewTicker(c.interval)
		defer t.Stop()
		for {
			c.collect()
			select {
			case <-t.C:
			case <-c.stop:
				c.collect()
				return
			}
		}
	}()
}

// Stop takes a final sample and waits for the loop to exit. Later calls do
// nothing.
func (c *Collector) Stop() {
	c.once.Do(func() {
		close(c.stop)
		if c.started {
			<-c.finished
		}
	})
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	s := c.provider.GetStats()
	ProgressTotal.Set(float64(s.Total))
	ProgressDone.Set(float64(s.Done))
	logging.Debug("progress %d/%d, queued %d, active %d, known %d, presented %d",
		s.Done, s.Total, s.Queued, s.Active, s.Known, s.Presented)
}
