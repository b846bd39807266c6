package client

import (
	"fmt"

	"spliceio/splice/pkg/config"
	"spliceio/splice/pkg/engine"
	"spliceio/splice/pkg/log"
	"spliceio/splice/pkg/promise"
	"spliceio/splice/pkg/stream"
)

// connHandler turns the connection's engine events into the pending result
// and, once resolved, into stream traffic. Events arrive serially, so st
// needs no locking.
type connHandler struct {
	cfg     *config.Client
	logger  *log.Logger
	pending *promise.Promise[*stream.Stream]

	st *stream.Stream
}

// Active resolves the pending connect with a fresh stream. A promise already
// settled means the attempt was abandoned; the stream is torn down again so
// no connection leaks.
func (h *connHandler) Active(ch engine.Channel) {
	h.st = stream.New(ch, h.cfg.QueueLimit)

	if !h.pending.Resolve(h.st) {
		h.st.Close()
		return
	}

	h.logger.VerboseMsg("Connected to %s\n", h.st.Metadata().RemoteAddr())
}

func (h *connHandler) Read(ch engine.Channel, p []byte) {
	h.st.Queue().Offer(p)
}

// Inactive closes the read side with the connection's outcome. A connection
// that dies before the promise settled rejects it instead.
func (h *connHandler) Inactive(ch engine.Channel, err error) {
	if h.st == nil {
		h.pending.Reject(fmt.Errorf("%w: %s: connection closed", ErrUnableToConnect, h.cfg.Addr()))
		return
	}

	h.st.Queue().Close(err)
	h.logger.VerboseMsg("Connection to %s lost\n", h.st.Metadata().RemoteAddr())
}

// Caught rejects the pending connect when the failure precedes activation,
// and otherwise logs errors worth reporting. The outcome still reaches the
// stream through Inactive.
func (h *connHandler) Caught(ch engine.Channel, err error) {
	if h.st == nil {
		h.pending.Reject(fmt.Errorf("%w: %s: %w", ErrUnableToConnect, h.cfg.Addr(), err))
		return
	}

	if engine.ExpectedDisconnect(err) {
		return
	}
	h.logger.ErrorMsg("Connection to %s: %s\n", h.st.Metadata().RemoteAddr(), err)
}
