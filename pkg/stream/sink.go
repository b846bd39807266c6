package stream

import (
	"errors"
	"fmt"
	"sync"

	"spliceio/splice/pkg/engine"
)

// ErrSinkClosed is returned for writes after the write half was closed.
var ErrSinkClosed = errors.New("stream: write on closed sink")

// Sink forwards consumer writes to the engine write path. Concurrent writers
// are serialized so bytes reach the engine in submission order; backpressure
// from an unwritable transport surfaces as the engine write blocking. A
// failed engine write is terminal: it is recorded, reported to the failure
// callback, and every later write returns it.
type Sink struct {
	ch        engine.Channel
	onFailure func(error)

	mu      sync.Mutex
	closed  bool
	failure error
}

// NewSink creates a sink bound to ch. onFailure runs at most once, on the
// first failed engine write, and is responsible for tearing the stream down.
func NewSink(ch engine.Channel, onFailure func(error)) *Sink {
	return &Sink{
		ch:        ch,
		onFailure: onFailure,
	}
}

// Write submits p to the engine. It blocks while the transport is not
// writable and returns ErrSinkClosed after Close.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failure != nil {
		return 0, s.failure
	}
	if s.closed {
		return 0, ErrSinkClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := s.ch.Write(p)
	if err != nil {
		s.failure = fmt.Errorf("engine write: %w", err)
		if s.onFailure != nil {
			s.onFailure(s.failure)
		}
		return n, s.failure
	}
	return n, nil
}

// Close shuts down the write half gracefully. In-flight engine writes finish
// first because Close takes the same lock that serializes them. Idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.ch.CloseWrite()
}
