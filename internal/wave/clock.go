package wave

import (
	"sync"
	"time"
)

// Clock abstracts time so stagger scheduling is testable without
// wall-clock sleeps.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// ManualClock is a virtual clock advanced explicitly by tests.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
	changed chan struct{}
}

// NewManualClock creates a manual clock starting at the given instant.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start, changed: make(chan struct{}, 1)}
}

// Now returns the current virtual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that fires once the virtual clock has advanced
// by d. Non-positive durations fire immediately.
func (c *ManualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, waiter{deadline: c.now.Add(d), ch: ch})
	c.signal()
	return ch
}

// Advance moves the virtual clock forward, firing every waiter whose
// deadline has been reached.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.now) {
			w.ch <- c.now
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.signal()
}

// BlockUntil waits until at least n waiters are pending on the clock.
// Tests use it to synchronize with goroutines about to sleep.
func (c *ManualClock) BlockUntil(n int) {
	for {
		c.mu.Lock()
		pending := len(c.waiters)
		c.mu.Unlock()
		if pending >= n {
			return
		}
		<-c.changed
	}
}

// signal wakes one BlockUntil poller. Callers hold c.mu.
func (c *ManualClock) signal() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}
