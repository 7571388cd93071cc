// Package ttl implements a single-value cache slot with an expiry timestamp.
package ttl

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a controllable clock.
type Clock func() time.Time

// Entry is a cached value and the instant after which it must be recomputed.
type Entry[T any] struct {
	Value     T
	ExpiresAt time.Time
}

// Fresh reports whether the entry may still be served at now.
// An entry is fresh up to and including ExpiresAt.
func (e Entry[T]) Fresh(now time.Time) bool {
	return !now.After(e.ExpiresAt)
}

// Slot holds at most one Entry. The mutex only guards reads and swaps of the
// entry; computing a replacement value happens outside of it, so concurrent
// stale readers may recompute in parallel and the last writer wins.
type Slot[T any] struct {
	mu     sync.RWMutex
	entry  Entry[T]
	filled bool
	gen    uint64
	ttl    time.Duration
	now    Clock
}

// NewSlot returns an empty slot whose entries live for ttl. A nil clock
// defaults to time.Now.
func NewSlot[T any](ttl time.Duration, clock Clock) *Slot[T] {
	if clock == nil {
		clock = time.Now
	}
	return &Slot[T]{ttl: ttl, now: clock}
}

// Get returns the cached value when the slot holds a fresh entry.
func (s *Slot[T]) Get() (T, bool) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.filled && s.entry.Fresh(now) {
		return s.entry.Value, true
	}
	var zero T
	return zero, false
}

// Peek returns the current entry regardless of freshness.
func (s *Slot[T]) Peek() (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry, s.filled
}

// Set replaces the entry with v, expiring ttl from now.
func (s *Slot[T]) Set(v T) Entry[T] {
	e := Entry[T]{Value: v, ExpiresAt: s.now().Add(s.ttl)}
	s.mu.Lock()
	s.entry = e
	s.filled = true
	s.mu.Unlock()
	return e
}

// SetIf stores v like Set unless the slot was invalidated since gen was read
// from Generation. ok is false when the value was discarded.
func (s *Slot[T]) SetIf(v T, gen uint64) (Entry[T], bool) {
	e := Entry[T]{Value: v, ExpiresAt: s.now().Add(s.ttl)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return Entry[T]{}, false
	}
	s.entry = e
	s.filled = true
	return e, true
}

// Generation returns a counter bumped by every Invalidate.
func (s *Slot[T]) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Invalidate marks the slot empty and discards values computed before it.
func (s *Slot[T]) Invalidate() {
	s.mu.Lock()
	var zero Entry[T]
	s.entry = zero
	s.filled = false
	s.gen++
	s.mu.Unlock()
}

// TTL returns the lifetime applied by Set.
func (s *Slot[T]) TTL() time.Duration {
	return s.ttl
}

// Now returns the slot clock's current time.
func (s *Slot[T]) Now() time.Time {
	return s.now()
}
