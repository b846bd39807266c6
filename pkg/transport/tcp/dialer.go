// Package tcp provides the TCP transport.
package tcp

import (
	"context"
	"fmt"
	"net"

	"spliceio/splice/pkg/config"
)

// Dialer implements transport.Dialer for TCP connections.
type Dialer struct {
	raddr  *net.TCPAddr
	laddr  *net.TCPAddr
	dialFn config.TCPDialerFunc
}

// NewDialer creates a TCP dialer for the given remote address. localAddr
// optionally binds the outgoing connection; deps can be nil.
func NewDialer(addr, localAddr string, deps *config.Dependencies) (*Dialer, error) {
	raddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err)
	}

	var laddr *net.TCPAddr
	if localAddr != "" {
		laddr, err = net.ResolveTCPAddr("tcp", localAddr)
		if err != nil {
			return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", localAddr, err)
		}
	}

	return &Dialer{
		raddr:  raddr,
		laddr:  laddr,
		dialFn: config.GetTCPDialerFunc(deps),
	}, nil
}

// Dial establishes the connection with keep-alive enabled.
func (d *Dialer) Dial(ctx context.Context) (net.Conn, error) {
	conn, err := d.dialFn(ctx, "tcp", d.laddr, d.raddr)
	if err != nil {
		return nil, fmt.Errorf("dial(tcp, %s): %w", d.raddr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetKeepAlive(true)
	}
	return conn, nil
}
