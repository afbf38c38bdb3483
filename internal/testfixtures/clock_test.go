package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Current(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	if got := nowFn(); !got.Equal(clock.Current()) {
		t.Fatalf("expected %v from NowFunc, got %v", clock.Current(), got)
	}

	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(clock.Current()) {
		t.Fatalf("expected updated time %v, got %v", clock.Current(), got)
	}
}

func TestClockFiresTimersInDeadlineOrder(t *testing.T) {
	start := time.Date(2024, time.May, 6, 9, 30, 0, 0, time.UTC)
	clock := NewClock(start)

	var fired []string
	var firedAt []time.Time
	record := func(name string) func() {
		return func() {
			fired = append(fired, name)
			firedAt = append(firedAt, clock.Now())
		}
	}
	clock.AfterFunc(3*time.Second, record("late"))
	clock.AfterFunc(time.Second, record("early"))
	clock.AfterFunc(time.Second, record("early-second"))
	stop := clock.AfterFunc(2*time.Second, record("stopped"))

	if !stop() {
		t.Fatalf("expected stop to report a pending timer")
	}
	if stop() {
		t.Fatalf("expected second stop to report false")
	}
	if clock.Pending() != 3 {
		t.Fatalf("expected 3 pending timers, got %d", clock.Pending())
	}

	clock.Advance(5 * time.Second)

	want := []string{"early", "early-second", "late"}
	if len(fired) != len(want) {
		t.Fatalf("unexpected fired timers %v", fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("unexpected firing order %v", fired)
		}
	}
	if !firedAt[0].Equal(start.Add(time.Second)) || !firedAt[2].Equal(start.Add(3*time.Second)) {
		t.Fatalf("timers observed unexpected times %v", firedAt)
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clock.Pending())
	}
}

func TestClockTimerScheduledFromCallback(t *testing.T) {
	start := time.Date(2024, time.May, 6, 9, 30, 0, 0, time.UTC)
	clock := NewClock(start)

	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		clock.AfterFunc(time.Second, tick)
	}
	clock.AfterFunc(time.Second, tick)

	clock.Advance(3 * time.Second)
	if ticks != 3 {
		t.Fatalf("expected 3 ticks, got %d", ticks)
	}
}
