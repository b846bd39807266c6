// Package client establishes outbound connections and exposes each one as a
// duplex stream. Connect blocks; ConnectAsync returns a promise that settles
// exactly once, with the stream on success or an error on failure.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"

	"spliceio/splice/pkg/config"
	"spliceio/splice/pkg/crypto"
	"spliceio/splice/pkg/engine"
	"spliceio/splice/pkg/engine/netengine"
	"spliceio/splice/pkg/log"
	"spliceio/splice/pkg/promise"
	"spliceio/splice/pkg/stream"
	"spliceio/splice/pkg/transport"
	"spliceio/splice/pkg/transport/kcp"
	"spliceio/splice/pkg/transport/mux"
	"spliceio/splice/pkg/transport/tcp"
	"spliceio/splice/pkg/transport/ws"
)

// ErrUnableToConnect marks connection attempts that failed before the
// connection became active. Test with errors.Is.
var ErrUnableToConnect = errors.New("unable to connect")

// Connect dials the configured address and blocks until the connection is
// active or fails. It is ConnectAsync followed by an await; canceling ctx
// abandons and rejects the attempt.
func Connect(ctx context.Context, cfg *config.Client) (*stream.Stream, error) {
	return ConnectAsync(ctx, cfg).Await(ctx)
}

// ConnectAsync starts a connection attempt and returns its pending result.
// The promise settles exactly once: with the stream when the connection
// becomes active, or with an error when dialing fails, the connection dies
// before becoming active, or ctx ends first.
func ConnectAsync(ctx context.Context, cfg *config.Client) *promise.Promise[*stream.Stream] {
	p := promise.New[*stream.Stream]()

	if errs := cfg.Validate(); len(errs) > 0 {
		p.Reject(errors.Join(errs...))
		return p
	}

	go connect(ctx, cfg, p)
	return p
}

func connect(ctx context.Context, cfg *config.Client, p *promise.Promise[*stream.Stream]) {
	dialCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	conn, err := dial(dialCtx, cfg)
	if err != nil {
		p.Reject(fmt.Errorf("%w: %s: %w", ErrUnableToConnect, cfg.Addr(), err))
		return
	}

	if cfg.LogFile != "" {
		conn, err = log.NewLoggedConn(conn, cfg.LogFile)
		if err != nil {
			conn.Close()
			p.Reject(fmt.Errorf("logging traffic to %s: %w", cfg.LogFile, err))
			return
		}
	}

	eng := netengine.New()
	if cfg.Bootstrap != nil {
		if err := cfg.Bootstrap(eng); err != nil {
			conn.Close()
			p.Reject(fmt.Errorf("bootstrap: %w", err))
			return
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewLogger(cfg.Verbose)
	}

	install := func(ch engine.Channel) engine.Handler {
		var h engine.Handler = &connHandler{
			cfg:     cfg,
			logger:  logger,
			pending: p,
		}
		if cfg.Pipeline != nil {
			h = cfg.Pipeline(ch, h)
		}
		return h
	}
	ch := eng.Attach(conn, install)

	// Abandon the attempt if ctx ends before the promise settles. Closing
	// the channel makes the engine finish its event sequence; a settled
	// promise ignores the late rejection.
	go func() {
		select {
		case <-ctx.Done():
			if p.Reject(fmt.Errorf("%w: %s: %w", ErrUnableToConnect, cfg.Addr(), ctx.Err())) {
				ch.Close()
			}
		case <-p.Done():
		}
	}()
}

// dial opens the transport connection and, when configured, upgrades it to
// TLS with a completed handshake. ProtoWSS carries its own transport TLS;
// cfg.SSL adds the key-derived layer on top regardless of protocol.
func dial(ctx context.Context, cfg *config.Client) (net.Conn, error) {
	d, err := dialer(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := d.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial(%s): %w", cfg.Protocol, err)
	}

	if !cfg.SSL {
		return conn, nil
	}

	tlsCfg := cfg.TLSConfig
	if tlsCfg == nil {
		tlsCfg, err = crypto.ClientTLSConfig(cfg.GetKey(), cfg.Insecure)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("crypto.ClientTLSConfig(): %w", err)
		}
	}

	tconn := tls.Client(conn, tlsCfg)
	if err := tconn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tconn, nil
}

func dialer(cfg *config.Client) (transport.Dialer, error) {
	addr := cfg.Addr()

	switch cfg.Protocol {
	case config.ProtoTCP:
		return tcp.NewDialer(addr, cfg.LocalAddr, cfg.Deps)
	case config.ProtoWS:
		return ws.NewDialer(addr, false), nil
	case config.ProtoWSS:
		return ws.NewDialer(addr, true), nil
	case config.ProtoKCP:
		return kcp.NewDialer(addr, cfg.Deps)
	case config.ProtoMux:
		carrier, err := tcp.NewDialer(addr, cfg.LocalAddr, cfg.Deps)
		if err != nil {
			return nil, err
		}
		return mux.NewDialer(carrier), nil
	default:
		return nil, fmt.Errorf("unknown protocol %d", cfg.Protocol)
	}
}
