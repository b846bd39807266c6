package config

import (
	"context"
	"net"
)

// Dependencies contains injectable network primitives for testing and
// customization. All fields are optional; nil fields use the stdlib.
type Dependencies struct {
	TCPDialer      TCPDialerFunc
	TCPListener    TCPListenerFunc
	PacketListener PacketListenerFunc
}

// TCPDialerFunc dials a TCP connection. It returns a net.Conn to allow for
// mock implementations.
type TCPDialerFunc func(ctx context.Context, network string, laddr, raddr *net.TCPAddr) (net.Conn, error)

// TCPListenerFunc creates a TCP listener. It returns a net.Listener to allow
// for mock implementations.
type TCPListenerFunc func(network string, laddr *net.TCPAddr) (net.Listener, error)

// PacketListenerFunc creates a packet listener, used by the kcp transport.
type PacketListenerFunc func(network, address string) (net.PacketConn, error)

// GetTCPDialerFunc returns the configured TCP dialer or the stdlib one.
func GetTCPDialerFunc(deps *Dependencies) TCPDialerFunc {
	if deps != nil && deps.TCPDialer != nil {
		return deps.TCPDialer
	}
	return func(ctx context.Context, network string, laddr, raddr *net.TCPAddr) (net.Conn, error) {
		d := net.Dialer{}
		if laddr != nil {
			d.LocalAddr = laddr
		}
		return d.DialContext(ctx, network, raddr.String())
	}
}

// GetTCPListenerFunc returns the configured TCP listener or the stdlib one.
func GetTCPListenerFunc(deps *Dependencies) TCPListenerFunc {
	if deps != nil && deps.TCPListener != nil {
		return deps.TCPListener
	}
	return func(network string, laddr *net.TCPAddr) (net.Listener, error) {
		return net.ListenTCP(network, laddr)
	}
}

// GetPacketListenerFunc returns the configured packet listener or the stdlib
// one.
func GetPacketListenerFunc(deps *Dependencies) PacketListenerFunc {
	if deps != nil && deps.PacketListener != nil {
		return deps.PacketListener
	}
	return net.ListenPacket
}
