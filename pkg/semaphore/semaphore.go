// Package semaphore provides a context-aware counting semaphore used to
// limit concurrently served connections.
package semaphore

import (
	"context"
	"fmt"
)

// Semaphore limits concurrent holders to a fixed capacity. A nil Semaphore
// is valid and never limits, so callers can thread an optional limit without
// nil checks.
type Semaphore struct {
	slots chan struct{}
}

// New creates a semaphore with capacity n. n < 1 returns nil, the unlimited
// semaphore.
func New(n int) *Semaphore {
	if n < 1 {
		return nil
	}
	return &Semaphore{
		slots: make(chan struct{}, n),
	}
}

// Acquire takes a slot, blocking until one is free or ctx ends.
func (s *Semaphore) Acquire(ctx context.Context) error {
	if s == nil {
		return nil
	}

	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("acquiring connection slot: %w", ctx.Err())
	}
}

// TryAcquire takes a slot without blocking and reports success.
func (s *Semaphore) TryAcquire() bool {
	if s == nil {
		return true
	}

	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a previously acquired slot.
func (s *Semaphore) Release() {
	if s == nil {
		return
	}
	<-s.slots
}
