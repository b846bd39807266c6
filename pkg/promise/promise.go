// Package promise provides a one-shot settlement cell for asynchronous
// results. A Promise transitions exactly once from pending to either a value
// or an error; later settlement attempts report failure instead of
// overwriting the first outcome.
package promise

import (
	"context"
	"sync"
)

// Promise is a single-assignment future. The zero value is not usable,
// create one with New.
type Promise[T any] struct {
	done chan struct{}

	mu      sync.Mutex
	settled bool
	val     T
	err     error
}

// New creates a pending promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{
		done: make(chan struct{}),
	}
}

// Resolve settles the promise with a value. It reports whether this call won
// the settlement; a false return means the promise was already settled and
// the value was discarded.
func (p *Promise[T]) Resolve(val T) bool {
	return p.settle(val, nil)
}

// Reject settles the promise with an error. It reports whether this call won
// the settlement.
func (p *Promise[T]) Reject(err error) bool {
	var zero T
	return p.settle(zero, err)
}

func (p *Promise[T]) settle(val T, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.settled {
		return false
	}
	p.settled = true
	p.val = val
	p.err = err
	close(p.done)

	return true
}

// Done returns a channel that is closed once the promise is settled.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the promise has been resolved or rejected.
func (p *Promise[T]) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Await blocks until the promise settles or ctx ends. A context error does
// not settle the promise; the settlement may still arrive later.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
