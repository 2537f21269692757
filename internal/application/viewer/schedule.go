package viewer

import (
	"sync"
	"time"
)

// Scheduler runs fn after d and returns a cancel function.  Tests substitute
// a manual clock.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// RealScheduler schedules on time.AfterFunc.  A non-positive delay runs fn
// before returning.
func RealScheduler(d time.Duration, fn func()) func() {
	if d <= 0 {
		fn()
		return func() {}
	}
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Coalescer batches triggers that arrive within a window into one call.
type Coalescer struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
	stopped bool
}

// NewCoalescer returns a coalescer calling fn at most once per window.  A
// zero window calls fn on every trigger.
func NewCoalescer(window time.Duration, fn func()) *Coalescer {
	return &Coalescer{window: window, fn: fn}
}

// Trigger requests a call.  The first trigger of a batch opens the window;
// later ones join it.
func (c *Coalescer) Trigger() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if c.window <= 0 {
		c.mu.Unlock()
		c.fn()
		return
	}
	if !c.pending {
		c.pending = true
		c.timer = time.AfterFunc(c.window, c.fire)
	}
	c.mu.Unlock()
}

func (c *Coalescer) fire() {
	c.mu.Lock()
	if !c.pending || c.stopped {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.mu.Unlock()
	c.fn()
}

// Flush runs a pending call now and reports whether there was one.
func (c *Coalescer) Flush() bool {
	c.mu.Lock()
	if !c.pending || c.stopped {
		c.mu.Unlock()
		return false
	}
	c.pending = false
	c.timer.Stop()
	c.mu.Unlock()
	c.fn()
	return true
}

// Pending reports whether a call is waiting for its window to close.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Stop drops any pending call and ignores later triggers.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.pending = false
	if c.timer != nil {
		c.timer.Stop()
	}
}
