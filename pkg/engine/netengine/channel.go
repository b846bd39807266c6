package netengine

import (
	"net"
	"sync"

	"spliceio/splice/pkg/engine"
)

// writeHalfCloser is implemented by net.TCPConn and tls.Conn. Connections
// without it fall back to a full close.
type writeHalfCloser interface {
	CloseWrite() error
}

// channel wraps a net.Conn as an engine.Channel. Reads happen only on the
// event pump goroutine; the gate fields suspend it while reads are paused.
type channel struct {
	conn    net.Conn
	bufSize int

	writeMu sync.Mutex

	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	closed  bool
	rdone   bool
	wclosed bool
}

func newChannel(conn net.Conn, bufSize int) *channel {
	c := &channel{
		conn:    conn,
		bufSize: bufSize,
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *channel) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *channel) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Write forwards bytes to the connection. The mutex keeps concurrent
// producers serialized so bytes reach the wire in call order; blocking while
// the socket buffer is full is the engine's writability backpressure.
func (c *channel) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.Write(p)
}

// CloseWrite shuts the outbound direction. Once the peer has ended the
// inbound direction too, nothing remains and the connection closes fully.
func (c *channel) CloseWrite() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.wclosed = true
	bothDone := c.rdone
	c.mu.Unlock()

	if bothDone {
		return c.Close()
	}
	if hc, ok := c.conn.(writeHalfCloser); ok {
		return hc.CloseWrite()
	}
	return c.Close()
}

// markReadDone records that the peer ended the inbound direction. With the
// outbound direction already closed the connection closes fully.
func (c *channel) markReadDone() {
	c.mu.Lock()
	c.rdone = true
	bothDone := c.wclosed
	c.mu.Unlock()

	if bothDone {
		c.Close()
	}
}

// Close is idempotent. Closing the connection also unblocks a pump goroutine
// stuck in a read or in the pause gate.
func (c *channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()

	return c.conn.Close()
}

func (c *channel) PauseReads() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

func (c *channel) ResumeReads() {
	c.mu.Lock()
	c.paused = false
	c.cond.Broadcast()
	c.mu.Unlock()
}

// waitReadable blocks while reads are paused. It reports false once the
// channel is closed.
func (c *channel) waitReadable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.paused && !c.closed {
		c.cond.Wait()
	}
	return !c.closed
}

func (c *channel) closedLocally() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var _ engine.Channel = (*channel)(nil)
