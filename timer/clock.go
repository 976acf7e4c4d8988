package timer

import (
	"sync"
	"time"
)

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock is the engine's source of time. The engine never touches the time
// package directly, so tests can drive the countdown with a ManualClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// NewWallClock returns the real wall-clock implementation.
func NewWallClock() Clock {
	return wallClock{}
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) NewTicker(d time.Duration) Ticker {
	return &wallTicker{ticker: time.NewTicker(d)}
}

type wallTicker struct {
	ticker *time.Ticker
}

func (t *wallTicker) C() <-chan time.Time { return t.ticker.C }
func (t *wallTicker) Stop()               { t.ticker.Stop() }

// ManualClock is a Clock for tests. Time only moves when Advance is called;
// each Advance delivers the ticks that elapsed to every live ticker.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManualClock creates a ManualClock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current frozen time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker registers a ticker fed by Advance.
func (c *ManualClock) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		d = time.Second
	}
	t := &manualTicker{
		clock:    c,
		interval: d,
		ch:       make(chan time.Time, 64),
	}
	c.mu.Lock()
	t.next = c.now.Add(d)
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

// Advance moves the clock forward and delivers due ticks. Delivery is
// non-blocking; a consumer that has fallen 64 ticks behind loses the rest,
// which mirrors how time.Ticker drops ticks on a slow receiver.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, t := range c.tickers {
		if t.stopped {
			continue
		}
		for !t.next.After(c.now) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.interval)
		}
	}
}

type manualTicker struct {
	clock    *ManualClock
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	stopped  bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}
