// Package stream implements the duplex byte stream handed to application
// code: a bounded inbound queue fed by engine read events, an outbound sink
// forwarding to the engine write path, and their composition with combined
// close semantics.
package stream

import (
	"context"
	"io"
	"sync"
)

// DefaultQueueLimit is the default inbound buffering budget in bytes.
const DefaultQueueLimit = 256 * 1024

// FlowController pauses and resumes the engine's reads for one connection.
// engine.Channel satisfies it.
type FlowController interface {
	PauseReads()
	ResumeReads()
}

// Queue is the bounded FIFO of received chunks between the engine's read
// events and the consumer. Offer and Close are called only from the event
// delivery goroutine; Take only by the consumer. When the buffered byte
// count reaches the limit the queue pauses engine reads, and resumes them
// once the consumer has drained below the low-water mark.
type Queue struct {
	flow  FlowController
	limit int
	low   int

	mu       sync.Mutex
	chunks   [][]byte
	buffered int
	paused   bool
	closed   bool
	terminal error // nil means clean end-of-stream

	wake chan struct{}
}

// NewQueue creates a queue with the given byte budget. A non-positive limit
// selects DefaultQueueLimit. The low-water mark is half the limit.
func NewQueue(flow FlowController, limit int) *Queue {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	return &Queue{
		flow:  flow,
		limit: limit,
		low:   limit / 2,
		wake:  make(chan struct{}, 1),
	}
}

// Offer enqueues a chunk from the engine's read event. It never blocks;
// saturation is signaled to the engine by pausing reads. Chunks arriving
// after Close are discarded, the connection is already tearing down.
func (q *Queue) Offer(p []byte) {
	if len(p) == 0 {
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.chunks = append(q.chunks, p)
	q.buffered += len(p)
	pause := !q.paused && q.buffered >= q.limit
	if pause {
		q.paused = true
	}
	q.mu.Unlock()

	if pause {
		q.flow.PauseReads()
	}
	q.signal()
}

// Close marks the queue terminally closed. Buffered chunks are still
// delivered; afterwards Take yields err, or io.EOF when err is nil. Close is
// idempotent and the first terminal error wins.
func (q *Queue) Close(err error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.terminal = err
	q.mu.Unlock()

	q.signal()
}

// Take returns the next chunk in arrival order. It blocks until a chunk is
// available, the queue closes, or ctx ends. Once closed and drained it
// returns the terminal error, or io.EOF for a clean close, on every call.
func (q *Queue) Take(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.chunks) > 0 {
			p := q.chunks[0]
			q.chunks[0] = nil
			q.chunks = q.chunks[1:]
			q.buffered -= len(p)
			resume := q.paused && q.buffered <= q.low
			if resume {
				q.paused = false
			}
			q.mu.Unlock()

			if resume {
				q.flow.ResumeReads()
			}
			return p, nil
		}
		if q.closed {
			err := q.terminal
			q.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return nil, err
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Buffered returns the number of bytes currently queued.
func (q *Queue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buffered
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
