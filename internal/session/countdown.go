package session

import "time"

// Countdown is a cancellable window with optional periodic ticks. Every
// callback is delivered through dispatch and checked against the generation
// that scheduled it, so a fire that races with Stop or a re-Arm is dropped.
//
// Countdown is not safe for concurrent use; it belongs to the goroutine that
// dispatch delivers to.
type Countdown struct {
	clock    Clock
	dispatch func(func())
	window   time.Duration
	tick     time.Duration

	generation uint64
	active     bool
	remaining  int
	stopExpiry func() bool
	stopTick   func() bool

	onTick   func(remaining int)
	onExpire func()
}

// NewCountdown returns an idle countdown. A zero tick disables ticks.
func NewCountdown(clock Clock, dispatch func(func()), window, tick time.Duration) *Countdown {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Countdown{clock: clock, dispatch: dispatch, window: window, tick: tick}
}

// OnTick registers the callback receiving the remaining whole ticks.
func (c *Countdown) OnTick(fn func(remaining int)) {
	c.onTick = fn
}

// OnExpire registers the callback run when the window elapses.
func (c *Countdown) OnExpire(fn func()) {
	c.onExpire = fn
}

// Arm starts the window, cancelling any running one first.
func (c *Countdown) Arm() {
	c.Stop()
	c.active = true
	if c.tick > 0 {
		c.remaining = int(c.window / c.tick)
	}

	gen := c.generation
	c.stopExpiry = c.clock.AfterFunc(c.window, func() {
		c.dispatch(func() { c.expire(gen) })
	})
	c.scheduleTick(gen)
}

// Stop cancels the running window. It is a no-op when idle.
func (c *Countdown) Stop() {
	c.generation++
	c.active = false
	c.remaining = 0
	if c.stopExpiry != nil {
		c.stopExpiry()
		c.stopExpiry = nil
	}
	if c.stopTick != nil {
		c.stopTick()
		c.stopTick = nil
	}
}

// Active reports whether a window is running.
func (c *Countdown) Active() bool {
	return c.active
}

// Remaining returns the whole ticks left, zero when idle or tickless.
func (c *Countdown) Remaining() int {
	return c.remaining
}

func (c *Countdown) scheduleTick(gen uint64) {
	if c.tick <= 0 {
		return
	}
	c.stopTick = c.clock.AfterFunc(c.tick, func() {
		c.dispatch(func() { c.advance(gen) })
	})
}

func (c *Countdown) advance(gen uint64) {
	if gen != c.generation || !c.active {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.stopTick = nil
		return
	}
	if c.onTick != nil {
		c.onTick(c.remaining)
	}
	c.scheduleTick(gen)
}

func (c *Countdown) expire(gen uint64) {
	if gen != c.generation || !c.active {
		return
	}
	c.Stop()
	if c.onExpire != nil {
		c.onExpire()
	}
}
