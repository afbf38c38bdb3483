package testfixtures

import (
	"sort"
	"sync"
	"time"
)

// Clock provides a controllable time source for tests. Timers scheduled with
// AfterFunc only fire from Advance or Set, on the caller's goroutine.
type Clock struct {
	mu      sync.Mutex
	current time.Time
	seq     uint64
	timers  []*manualTimer
}

type manualTimer struct {
	seq      uint64
	deadline time.Time
	fn       func()
	stopped  bool
}

// NewClock returns a clock initialised to the supplied time. When start is the
// zero value, the shared ReferenceTime is used.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// AfterFunc schedules fn to run once the clock has been moved at least d
// forward. The returned function cancels the timer and reports whether it was
// still pending.
func (c *Clock) AfterFunc(d time.Duration, fn func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	timer := &manualTimer{seq: c.seq, deadline: c.current.Add(d), fn: fn}
	c.timers = append(c.timers, timer)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if timer.stopped {
			return false
		}
		timer.stopped = true
		return true
	}
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			count++
		}
	}
	return count
}

// Set moves the clock to t, firing every timer due on the way.
func (c *Clock) Set(t time.Time) {
	for {
		timer := c.nextDue(t)
		if timer == nil {
			break
		}
		timer.fn()
	}
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by the provided duration, firing due timers
// in deadline order, and returns the updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	target := c.Now().Add(d)
	c.Set(target)
	return target
}

// Current returns the clock time without modifying it. It is equivalent to
// calling Now but signals the absence of time progression.
func (c *Clock) Current() time.Time {
	return c.Now()
}

// nextDue pops the earliest pending timer due at or before target and moves
// the clock to its deadline.
func (c *Clock) nextDue(target time.Time) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.timers[:0]
	for _, timer := range c.timers {
		if !timer.stopped {
			live = append(live, timer)
		}
	}
	c.timers = live
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].deadline.Equal(c.timers[j].deadline) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].deadline.Before(c.timers[j].deadline)
	})

	if len(c.timers) == 0 || c.timers[0].deadline.After(target) {
		return nil
	}
	timer := c.timers[0]
	timer.stopped = true
	c.timers = c.timers[1:]
	if timer.deadline.After(c.current) {
		c.current = timer.deadline
	}
	return timer
}
