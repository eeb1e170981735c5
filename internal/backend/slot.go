// Package backend supervises the hardware access channels and routes
// read and write operations to whichever one is currently usable.
package backend

import "sync"

// Slot is a reader-writer-guarded optional backend handle. Absence
// always means "not currently usable", never "unknown". The owning
// supervisor is the sole writer; everything else only reads.
type Slot[T any] struct {
	mu    sync.RWMutex
	value T
	ok    bool
}

func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

// Get returns the current handle and whether one is held.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.value, s.ok
}

// Available reports whether a handle is currently held.
func (s *Slot[T]) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ok
}

// Set stores a usable handle.
func (s *Slot[T]) Set(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	s.ok = true
}

// Clear marks the backend unusable and drops the handle.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	s.value = zero
	s.ok = false
}
