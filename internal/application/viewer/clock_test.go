package viewer_test

import (
	"sort"
	"sync"
	"time"
)

// manualClock is a Scheduler whose tasks run only when the test says so.
type manualClock struct {
	mu    sync.Mutex
	seq   int
	tasks []*clockTask
}

type clockTask struct {
	at        time.Duration
	seq       int
	fn        func()
	cancelled bool
}

func (c *manualClock) Schedule(d time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &clockTask{at: d, seq: c.seq, fn: fn}
	c.tasks = append(c.tasks, t)
	return func() {
		c.mu.Lock()
		t.cancelled = true
		c.mu.Unlock()
	}
}

// Pending counts tasks that are neither run nor cancelled.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// RunAll runs live tasks in delay order, including ones scheduled while
// running, and returns how many ran.
func (c *manualClock) RunAll() int {
	ran := 0
	for {
		c.mu.Lock()
		var live []*clockTask
		for _, t := range c.tasks {
			if !t.cancelled {
				live = append(live, t)
			}
		}
		c.tasks = nil
		c.mu.Unlock()
		if len(live) == 0 {
			return ran
		}
		sort.Slice(live, func(i, j int) bool {
			if live[i].at != live[j].at {
				return live[i].at < live[j].at
			}
			return live[i].seq < live[j].seq
		})
		for _, t := range live {
			c.mu.Lock()
			skip := t.cancelled
			c.mu.Unlock()
			if skip {
				continue
			}
			t.fn()
			ran++
		}
	}
}
