// Package netengine implements the engine capability on top of net.Conn.
// It runs one event-delivery goroutine per connection, which makes all
// lifecycle events for a connection serial by construction. Pausing reads
// gates that goroutine before the next Read call; writability backpressure
// is the blocking write of the underlying connection.
package netengine

import (
	"io"
	"net"

	"spliceio/splice/pkg/engine"
)

// DefaultReadBufferSize is the per-connection read buffer size.
const DefaultReadBufferSize = 32 * 1024

// Engine attaches connections to event handlers. The zero value is not
// usable, create one with New. Bootstrap hooks may tune the public fields
// before the first Attach.
type Engine struct {
	// ReadBufferSize is the size of the buffer used for each engine read.
	// It bounds the maximum chunk size delivered to handlers.
	ReadBufferSize int
}

// New creates an engine with default settings.
func New() *Engine {
	return &Engine{
		ReadBufferSize: DefaultReadBufferSize,
	}
}

// BootstrapHook customizes an engine before it starts serving connections.
type BootstrapHook func(e *Engine) error

// Attach binds conn to the handler built by install and starts event
// delivery. The returned Channel is live immediately; the Active event fires
// on the delivery goroutine before any Read.
func (e *Engine) Attach(conn net.Conn, install engine.InstallFunc) engine.Channel {
	bufSize := e.ReadBufferSize
	if bufSize <= 0 {
		bufSize = DefaultReadBufferSize
	}

	ch := newChannel(conn, bufSize)
	h := install(ch)
	go ch.loop(h)

	return ch
}

// loop is the per-connection event pump. It guarantees Active fires first,
// Read events preserve arrival order, and Inactive fires exactly once on
// every exit path.
func (c *channel) loop(h engine.Handler) {
	h.Active(c)

	buf := make([]byte, c.bufSize)
	for {
		if !c.waitReadable() {
			// Closed locally while paused or between reads.
			h.Inactive(c, nil)
			return
		}

		n, err := c.conn.Read(buf)
		if n > 0 {
			p := make([]byte, n)
			copy(p, buf[:n])
			h.Read(c, p)
		}
		if err != nil {
			if err == io.EOF {
				// Peer half-close: inbound ends here, outbound stays
				// usable until the local side closes it.
				c.markReadDone()
				h.Inactive(c, nil)
				return
			}
			if c.closedLocally() {
				h.Inactive(c, nil)
				return
			}
			// Everything else, expected disconnects included, reaches the
			// handler as-is. Classification is the handler's concern.
			c.Close()
			h.Caught(c, err)
			h.Inactive(c, err)
			return
		}
	}
}
