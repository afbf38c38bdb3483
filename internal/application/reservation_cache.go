package application

import (
	"sync"
	"time"
)

// reservationCache keeps the last reservation listing so calendar and list
// views do not hit the backend on every request. Commits invalidate it.
//
// generation moves on every Invalidate so a listing fetched before an
// invalidation is never stored after it.
type reservationCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	entries    []Reservation
	expiresAt  time.Time
	filled     bool
	generation uint64
}

func newReservationCache(ttl time.Duration, now func() time.Time) *reservationCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &reservationCache{now: now, ttl: ttl}
}

func (c *reservationCache) Get() ([]Reservation, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	filled, expiresAt, entries := c.filled, c.expiresAt, c.entries
	c.mu.RUnlock()
	if !filled {
		return nil, false
	}
	if c.now().After(expiresAt) {
		c.Invalidate()
		return nil, false
	}
	return cloneReservations(entries), true
}

// Generation returns the token a caller must pass to Store for a listing it is
// about to fetch.
func (c *reservationCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Store caches reservations fetched at generation. It reports false and keeps
// the cache empty when an invalidation happened in the meantime.
func (c *reservationCache) Store(generation uint64, reservations []Reservation) bool {
	if c == nil {
		return false
	}
	cloned := cloneReservations(reservations)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	c.entries = cloned
	c.expiresAt = expiry
	c.filled = true
	return true
}

func (c *reservationCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = nil
	c.filled = false
	c.generation++
	c.mu.Unlock()
}

func cloneReservations(reservations []Reservation) []Reservation {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]Reservation, len(reservations))
	copy(out, reservations)
	return out
}
