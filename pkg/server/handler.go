package server

import (
	"spliceio/splice/pkg/engine"
	"spliceio/splice/pkg/stream"
)

// connHandler adapts one connection's engine events into a stream. Events
// arrive serially, so the state transitions need no locking: st is nil until
// Active fires, set for the connection's lifetime afterwards, and the queue
// is closed exactly once by Inactive.
type connHandler struct {
	srv *Server
	fn  Handler

	st *stream.Stream
}

// Active builds the stream and starts the application handler on its own
// goroutine. Panics in the application handler are not recovered; they crash
// the process like any other unhandled panic.
func (h *connHandler) Active(ch engine.Channel) {
	h.st = stream.New(ch, h.srv.cfg.QueueLimit)
	md := h.st.Metadata()

	h.srv.logger.VerboseMsg("New connection from %s\n", md.RemoteAddr())

	go h.fn(h.st, md)
}

// Read feeds received bytes into the stream's queue. The queue applies
// backpressure through the channel when the application falls behind.
func (h *connHandler) Read(ch engine.Channel, p []byte) {
	h.st.Queue().Offer(p)
}

// Inactive closes the read side with the connection's outcome and releases
// the connection's slot. A nil err surfaces as EOF to the application.
func (h *connHandler) Inactive(ch engine.Channel, err error) {
	h.st.Queue().Close(err)

	h.srv.logger.VerboseMsg("Connection from %s lost\n", h.st.Metadata().RemoteAddr())

	h.srv.untrack(ch)
	h.srv.sem.Release()
	h.srv.wg.Done()
}

// Caught logs transport errors worth reporting. Ordinary disconnects are
// classified away; the outcome still reaches the application through
// Inactive.
func (h *connHandler) Caught(ch engine.Channel, err error) {
	if engine.ExpectedDisconnect(err) {
		return
	}
	h.srv.logger.ErrorMsg("Connection from %s: %s\n", h.st.Metadata().RemoteAddr(), err)
}
