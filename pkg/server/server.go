// Package server accepts connections on a configured transport and hands
// each one to the application as a duplex stream. The engine's callback
// events never reach the application directly; they are absorbed into the
// stream's queue and sink.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"

	"spliceio/splice/pkg/config"
	"spliceio/splice/pkg/crypto"
	"spliceio/splice/pkg/engine"
	"spliceio/splice/pkg/engine/netengine"
	"spliceio/splice/pkg/format"
	"spliceio/splice/pkg/log"
	"spliceio/splice/pkg/semaphore"
	"spliceio/splice/pkg/stream"
	"spliceio/splice/pkg/transport/kcp"
	"spliceio/splice/pkg/transport/mux"
	"spliceio/splice/pkg/transport/tcp"
	"spliceio/splice/pkg/transport/ws"
)

// Handler serves one accepted connection. It runs on its own goroutine and
// owns the stream until it returns or closes it. md is the same value
// st.Metadata() returns.
type Handler func(st *stream.Stream, md *stream.Metadata)

// Server listens for connections and adapts each one into a stream.
type Server struct {
	cfg    *config.Server
	eng    *netengine.Engine
	l      net.Listener
	logger *log.Logger
	sem    *semaphore.Semaphore

	wg sync.WaitGroup

	mu     sync.Mutex
	active map[engine.Channel]struct{}
	closed bool
}

// New creates a server and binds its listener. The server is listening but
// not accepting until Serve is called, so a port chosen with Port 0 can be
// introspected before any connection arrives.
func New(cfg *config.Server) (*Server, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	eng := netengine.New()
	if cfg.Bootstrap != nil {
		if err := cfg.Bootstrap(eng); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}

	l, err := listen(cfg)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewLogger(cfg.Verbose)
	}

	return &Server{
		cfg:    cfg,
		eng:    eng,
		l:      l,
		logger: logger,
		sem:    semaphore.New(cfg.MaxConnections),
		active: make(map[engine.Channel]struct{}),
	}, nil
}

// listen builds the protocol listener and layers TLS on top when configured.
// ProtoWSS carries its own transport TLS; cfg.SSL adds the key-derived layer
// on top regardless of protocol.
func listen(cfg *config.Server) (net.Listener, error) {
	addr := format.Addr(cfg.Host, cfg.Port)

	var l net.Listener
	var err error
	switch cfg.Protocol {
	case config.ProtoTCP:
		l, err = tcp.Listen(addr, cfg.Deps)
	case config.ProtoWS:
		l, err = ws.Listen(addr, false)
	case config.ProtoWSS:
		l, err = ws.Listen(addr, true)
	case config.ProtoKCP:
		l, err = kcp.Listen(addr, cfg.Deps)
	case config.ProtoMux:
		var inner net.Listener
		inner, err = tcp.Listen(addr, cfg.Deps)
		if err == nil {
			l = mux.NewListener(inner)
		}
	default:
		return nil, fmt.Errorf("unknown protocol %d", cfg.Protocol)
	}
	if err != nil {
		return nil, fmt.Errorf("listen(%s, %s): %w", cfg.Protocol, addr, err)
	}

	if cfg.SSL {
		tlsCfg := cfg.TLSConfig
		if tlsCfg == nil {
			tlsCfg, err = crypto.ServerTLSConfig(cfg.GetKey())
			if err != nil {
				l.Close()
				return nil, fmt.Errorf("crypto.ServerTLSConfig(): %w", err)
			}
		}
		l = tls.NewListener(l, tlsCfg)
	}

	return l, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.l.Addr()
}

// Port returns the bound port, which differs from the configured one when
// Port 0 requested an ephemeral port.
func (s *Server) Port() int {
	_, port, err := format.SplitHostPort(s.l.Addr().String())
	if err != nil {
		return s.cfg.Port
	}
	return port
}

// Serve accepts connections until the listener closes, invoking fn once per
// connection. It returns nil after Shutdown or Close, the accept error
// otherwise.
func (s *Server) Serve(fn Handler) error {
	s.logger.VerboseMsg("Listening on %s\n", s.l.Addr())

	for {
		conn, err := s.l.Accept()
		if err != nil {
			if s.isClosed() || engine.ExpectedDisconnect(err) {
				return nil
			}
			return fmt.Errorf("Accept(): %w", err)
		}

		if !s.sem.TryAcquire() {
			s.logger.VerboseMsg("Rejecting %s: connection limit reached\n", conn.RemoteAddr())
			conn.Close()
			continue
		}

		if s.cfg.LogFile != "" {
			lc, err := log.NewLoggedConn(conn, s.cfg.LogFile)
			if err != nil {
				s.logger.ErrorMsg("Logging traffic to %s: %s\n", s.cfg.LogFile, err)
				conn.Close()
				s.sem.Release()
				continue
			}
			conn = lc
		}

		s.wg.Add(1)
		s.attach(conn, fn)
	}
}

// attach installs the stream-adapting handler on the engine.
func (s *Server) attach(conn net.Conn, fn Handler) {
	install := func(ch engine.Channel) engine.Handler {
		s.track(ch)

		var h engine.Handler = &connHandler{srv: s, fn: fn}
		if s.cfg.Pipeline != nil {
			h = s.cfg.Pipeline(ch, h)
		}
		return h
	}
	s.eng.Attach(conn, install)
}

func (s *Server) track(ch engine.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[ch] = struct{}{}
}

func (s *Server) untrack(ch engine.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, ch)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Shutdown stops accepting and waits for in-flight connections to end or the
// context to expire. Connections still active when the context expires are
// left to their handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopAccepting()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting and force-closes all active connections.
func (s *Server) Close() error {
	err := s.stopAccepting()

	s.mu.Lock()
	channels := make([]engine.Channel, 0, len(s.active))
	for ch := range s.active {
		channels = append(channels, ch)
	}
	s.mu.Unlock()

	for _, ch := range channels {
		ch.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) stopAccepting() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.l.Close()
}
