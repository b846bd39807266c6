// Package mux multiplexes many logical streams over a single carrier
// connection using yamux. The listener side accepts one stream per dialer
// Dial call, so the adapters above see ordinary connections.
package mux

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/hashicorp/yamux"

	"spliceio/splice/pkg/transport"
)

func yamuxConfig() *yamux.Config {
	cfg := yamux.DefaultConfig()
	cfg.LogOutput = nil
	cfg.Logger = log.New(io.Discard, "", log.LstdFlags) // discard all console logging in yamux
	return cfg
}

// Dialer opens logical streams over a single carrier connection. The carrier
// is dialed lazily on the first Dial and reused afterwards.
type Dialer struct {
	carrier transport.Dialer

	mu   sync.Mutex
	sess *yamux.Session
}

// NewDialer creates a mux dialer on top of the given carrier dialer.
func NewDialer(carrier transport.Dialer) *Dialer {
	return &Dialer{carrier: carrier}
}

// Dial opens a new logical stream, establishing the carrier session first if
// needed. A dead session is discarded and redialed.
func (d *Dialer) Dial(ctx context.Context) (net.Conn, error) {
	sess, err := d.session(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := sess.Open()
	if err != nil {
		return nil, fmt.Errorf("session.Open(): %w", err)
	}

	return stream, nil
}

func (d *Dialer) session(ctx context.Context) (*yamux.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sess != nil && !d.sess.IsClosed() {
		return d.sess, nil
	}

	conn, err := d.carrier.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("carrier dial: %w", err)
	}

	sess, err := yamux.Client(conn, yamuxConfig())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("yamux.Client(conn): %w", err)
	}

	d.sess = sess
	return sess, nil
}

// Close tears down the carrier session, if any.
func (d *Dialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sess == nil {
		return nil
	}
	err := d.sess.Close()
	d.sess = nil
	return err
}

// Listener accepts logical streams from all carrier connections of an inner
// listener. Each accepted carrier gets its own yamux server session; its
// streams are delivered through Accept in arrival order.
type Listener struct {
	inner net.Listener

	streams chan net.Conn
	done    chan struct{}
	once    sync.Once
}

// NewListener wraps an inner listener. The returned listener owns the inner
// one and closes it with Close.
func NewListener(inner net.Listener) *Listener {
	l := &Listener{
		inner:   inner,
		streams: make(chan net.Conn),
		done:    make(chan struct{}),
	}
	go l.acceptCarriers()
	return l
}

func (l *Listener) acceptCarriers() {
	for {
		conn, err := l.inner.Accept()
		if err != nil {
			return
		}
		go l.acceptStreams(conn)
	}
}

func (l *Listener) acceptStreams(conn net.Conn) {
	sess, err := yamux.Server(conn, yamuxConfig())
	if err != nil {
		conn.Close()
		return
	}

	for {
		stream, err := sess.Accept()
		if err != nil {
			sess.Close()
			return
		}
		select {
		case l.streams <- stream:
		case <-l.done:
			stream.Close()
			sess.Close()
			return
		}
	}
}

// Accept returns the next logical stream from any carrier.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case stream := <-l.streams:
		return stream, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

// Close stops accepting and closes the inner listener.
func (l *Listener) Close() error {
	l.once.Do(func() { close(l.done) })
	return l.inner.Close()
}

// Addr returns the inner listener's address.
func (l *Listener) Addr() net.Addr {
	return l.inner.Addr()
}

var _ net.Listener = (*Listener)(nil)
var _ transport.Dialer = (*Dialer)(nil)
