package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock only moves when Advance is called. Due callbacks run
// synchronously inside Advance in deadline order, so a callback must not
// call Advance itself.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	fn       func()
	done     bool
}

func Fake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }}
	}

	c.mu.Lock()
	ft := &fakeTimer{deadline: c.now.Add(d), fn: f}
	c.pending = append(c.pending, ft)
	c.mu.Unlock()

	return &Timer{stop: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ft.done {
			return false
		}
		ft.done = true
		c.removeLocked(ft)
		return true
	}}
}

// Advance moves the clock forward by d and runs every callback whose
// deadline is not after the new time.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now

	var due, rest []*fakeTimer
	for _, ft := range c.pending {
		if ft.deadline.After(target) {
			rest = append(rest, ft)
			continue
		}
		ft.done = true
		due = append(due, ft)
	}
	c.pending = rest
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, ft := range due {
		ft.fn()
	}
}

// PendingCount is the number of scheduled callbacks that have neither
// fired nor been stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *FakeClock) removeLocked(target *fakeTimer) {
	for i, ft := range c.pending {
		if ft == target {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}
