package tcp

import (
	"fmt"
	"net"

	"spliceio/splice/pkg/config"
)

// Listen creates a TCP listener on addr. A ":0" port binds an ephemeral
// port, introspectable through the returned listener's Addr. deps can be
// nil.
func Listen(addr string, deps *config.Dependencies) (net.Listener, error) {
	laddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %w", addr, err)
	}

	listenFn := config.GetTCPListenerFunc(deps)
	l, err := listenFn("tcp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen(tcp, %s): %w", addr, err)
	}

	return l, nil
}
