// Package kcp provides a reliable-UDP transport built on the KCP protocol.
package kcp

import (
	"context"
	"fmt"
	"net"

	kcp "github.com/xtaci/kcp-go/v5"

	"spliceio/splice/pkg/config"
)

// tune applies the session settings used on both ends: stream mode with
// fast retransmission and congestion control disabled.
func tune(sess *kcp.UDPSession) {
	sess.SetNoDelay(1, 10, 2, 1)
	sess.SetStreamMode(true)
	sess.SetWindowSize(1024, 1024)
}

// Dialer implements transport.Dialer for KCP sessions over UDP.
type Dialer struct {
	raddr        *net.UDPAddr
	packetConnFn config.PacketListenerFunc
}

// NewDialer creates a KCP dialer for the given remote address. deps can be
// nil.
func NewDialer(addr string, deps *config.Dependencies) (*Dialer, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err)
	}

	return &Dialer{
		raddr:        raddr,
		packetConnFn: config.GetPacketListenerFunc(deps),
	}, nil
}

// Dial establishes a KCP session to the configured address.
func (d *Dialer) Dial(ctx context.Context) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pc, err := d.packetConnFn("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("listen(udp, :0): %w", err)
	}

	sess, err := kcp.NewConn(d.raddr.String(), nil, 0, 0, pc)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("kcp.NewConn(%s): %w", d.raddr, err)
	}

	tune(sess)
	return sess, nil
}

// Listener wraps a KCP listener so accepted sessions come out tuned.
type Listener struct {
	inner *kcp.Listener
}

// Listen creates a KCP listener on addr. deps can be nil.
func Listen(addr string, deps *config.Dependencies) (*Listener, error) {
	if _, err := net.ResolveUDPAddr("udp", addr); err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err)
	}

	packetConnFn := config.GetPacketListenerFunc(deps)
	pc, err := packetConnFn("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen(udp, %s): %w", addr, err)
	}

	inner, err := kcp.ServeConn(nil, 0, 0, pc)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("kcp.ServeConn(): %w", err)
	}

	return &Listener{inner: inner}, nil
}

// Accept returns the next tuned KCP session.
func (l *Listener) Accept() (net.Conn, error) {
	sess, err := l.inner.AcceptKCP()
	if err != nil {
		return nil, fmt.Errorf("AcceptKCP(): %w", err)
	}

	tune(sess)
	return sess, nil
}

// Close closes the listener and its packet connection.
func (l *Listener) Close() error {
	return l.inner.Close()
}

// Addr returns the bound UDP address.
func (l *Listener) Addr() net.Addr {
	return l.inner.Addr()
}

var _ net.Listener = (*Listener)(nil)
