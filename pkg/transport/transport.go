// Package transport provides the pluggable connection factories underneath
// the engine. Each transport (tcp, ws, kcp, mux) contributes a Dialer for
// outbound connections and a net.Listener constructor for inbound ones; the
// engine and the adapters on top only ever see net.Conn.
package transport

import (
	"context"
	"net"
)

// Dialer establishes one outbound connection.
type Dialer interface {
	Dial(ctx context.Context) (net.Conn, error)
}
