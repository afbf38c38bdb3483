package session

import (
	"testing"
	"time"

	"github.com/example/scanventory/internal/testfixtures"
)

func TestCountdownTicksAndExpires(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	countdown := NewCountdown(clock, nil, 3*time.Second, time.Second)

	var ticks []int
	expired := 0
	countdown.OnTick(func(remaining int) { ticks = append(ticks, remaining) })
	countdown.OnExpire(func() { expired++ })

	countdown.Arm()
	if !countdown.Active() || countdown.Remaining() != 3 {
		t.Fatalf("unexpected armed countdown: active=%v remaining=%d", countdown.Active(), countdown.Remaining())
	}

	clock.Advance(3 * time.Second)
	if expired != 1 {
		t.Fatalf("expected one expiry, got %d", expired)
	}
	if len(ticks) != 2 || ticks[0] != 2 || ticks[1] != 1 {
		t.Fatalf("unexpected ticks %v", ticks)
	}
	if countdown.Active() || countdown.Remaining() != 0 {
		t.Fatalf("countdown still active after expiry")
	}
}

func TestCountdownStopIsIdempotent(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	countdown := NewCountdown(clock, nil, time.Second, 0)
	expired := 0
	countdown.OnExpire(func() { expired++ })

	countdown.Stop()
	countdown.Arm()
	countdown.Stop()
	countdown.Stop()

	clock.Advance(5 * time.Second)
	if expired != 0 {
		t.Fatalf("stopped countdown expired %d times", expired)
	}
}

func TestCountdownIgnoresStaleCallbacks(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	var queued []func()
	dispatch := func(fn func()) { queued = append(queued, fn) }

	countdown := NewCountdown(clock, dispatch, time.Second, 0)
	expired := 0
	countdown.OnExpire(func() { expired++ })

	countdown.Arm()
	clock.Advance(time.Second)
	if len(queued) != 1 {
		t.Fatalf("expected one queued callback, got %d", len(queued))
	}

	// The callback was already in flight when the window was re-armed.
	countdown.Arm()
	queued[0]()
	if expired != 0 {
		t.Fatalf("stale callback expired the new window")
	}
	if !countdown.Active() {
		t.Fatalf("re-armed countdown must stay active")
	}

	clock.Advance(time.Second)
	queued[1]()
	if expired != 1 {
		t.Fatalf("expected expiry of the current window, got %d", expired)
	}
}
