package stream

import (
	"context"
	"errors"
	"io"
	"sync"

	"spliceio/splice/pkg/engine"
)

// ErrStreamClosed is the terminal read result after a local Close.
var ErrStreamClosed = errors.New("stream: closed")

// Stream is one TCP connection's data plane: an ordered, backpressured,
// bidirectional stream of byte chunks. The read side drains the inbound
// queue, the write side feeds the outbound sink. Closing one half leaves the
// other operative (TCP half-close) until the underlying connection itself
// goes away, which closes both.
//
// Stream implements io.ReadWriteCloser. Read and ReadChunk must not be
// called concurrently with each other; the read side is single-consumer.
type Stream struct {
	ch    engine.Channel
	queue *Queue
	sink  *Sink

	leftover []byte

	metaOnce sync.Once
	meta     *Metadata

	closeOnce sync.Once
}

// Splice binds an inbound queue and an outbound sink to one channel,
// producing the duplex stream handed to application code.
func Splice(ch engine.Channel, q *Queue, s *Sink) *Stream {
	return &Stream{
		ch:    ch,
		queue: q,
		sink:  s,
	}
}

// New wires a fresh queue and sink to ch and splices them. queueLimit bounds
// inbound buffering; non-positive selects the default. A failed engine write
// tears down both halves.
func New(ch engine.Channel, queueLimit int) *Stream {
	q := NewQueue(ch, queueLimit)
	s := NewSink(ch, func(err error) {
		q.Close(err)
		ch.Close()
	})
	return Splice(ch, q, s)
}

// Queue exposes the inbound queue to the adapter feeding it.
func (s *Stream) Queue() *Queue {
	return s.queue
}

// ReadChunk returns the next received chunk in arrival order, blocking until
// one is available, the stream ends, or ctx ends. The terminal result is
// io.EOF after a clean remote close, or the transport error that ended the
// connection.
func (s *Stream) ReadChunk(ctx context.Context) ([]byte, error) {
	return s.queue.Take(ctx)
}

// Read implements io.Reader over the chunk stream. Chunk boundaries are not
// preserved; leftover bytes of a partially consumed chunk are returned
// first.
func (s *Stream) Read(p []byte) (int, error) {
	if len(s.leftover) == 0 {
		chunk, err := s.queue.Take(context.Background())
		if err != nil {
			return 0, err
		}
		s.leftover = chunk
	}

	n := copy(p, s.leftover)
	s.leftover = s.leftover[n:]
	return n, nil
}

// Write submits p to the write half, blocking under transport backpressure.
func (s *Stream) Write(p []byte) (int, error) {
	return s.sink.Write(p)
}

// CloseWrite half-closes the stream: the peer observes end-of-stream while
// the read side keeps draining.
func (s *Stream) CloseWrite() error {
	return s.sink.Close()
}

// Close tears the whole stream down, propagating an engine-level close of
// the connection within this call. Reads drain what was already buffered and
// then return ErrStreamClosed. Idempotent.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.queue.Close(ErrStreamClosed)
		_ = s.sink.Close()
		err = s.ch.Close()
	})
	return err
}

// Metadata returns the connection's endpoint information, computed lazily on
// first use and immutable afterwards.
func (s *Stream) Metadata() *Metadata {
	s.metaOnce.Do(func() {
		s.meta = newMetadata(s.ch)
	})
	return s.meta
}

var _ io.ReadWriteCloser = (*Stream)(nil)
