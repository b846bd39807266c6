package ws

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"spliceio/splice/pkg/crypto"
)

// Listener accepts WebSocket connections and exposes them as a net.Listener
// of binary-message net.Conns. An internal HTTP server performs the
// upgrades.
type Listener struct {
	inner  net.Listener
	server *http.Server

	conns chan net.Conn

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Listen creates a WebSocket listener on addr. secure enables transport
// TLS with an ephemeral certificate; peer authentication belongs to the
// application TLS layer.
func Listen(addr string, secure bool) (*Listener, error) {
	inner, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.Listen(tcp, %s): %w", addr, err)
	}

	if secure {
		seed, err := crypto.RandomString(32)
		if err != nil {
			inner.Close()
			return nil, fmt.Errorf("crypto.RandomString(32): %w", err)
		}
		_, cert, err := crypto.GenerateCertificates(seed)
		if err != nil {
			inner.Close()
			return nil, fmt.Errorf("crypto.GenerateCertificates: %w", err)
		}
		inner = tls.NewListener(inner, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS13,
		})
	}

	l := &Listener{
		inner: inner,
		conns: make(chan net.Conn),
		done:  make(chan struct{}),
	}
	l.server = &http.Server{
		Handler:           http.HandlerFunc(l.upgrade),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		// Serve exits when the listener closes; the error is reported to
		// Accept callers through the done channel.
		_ = l.server.Serve(inner)
	}()

	return l, nil
}

func (l *Listener) upgrade(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{subprotocol},
	})
	if err != nil {
		return
	}

	conn := websocket.NetConn(context.Background(), c, websocket.MessageBinary)
	select {
	case l.conns <- conn:
	case <-l.done:
		conn.Close()
	}
}

// Accept returns the next upgraded connection.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

// Close shuts the HTTP server and the underlying listener down.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.done)
	l.mu.Unlock()

	err := l.server.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("http.Server.Close(): %w", err)
	}
	return nil
}

// Addr returns the bound address of the underlying listener.
func (l *Listener) Addr() net.Addr {
	return l.inner.Addr()
}

var _ net.Listener = (*Listener)(nil)
