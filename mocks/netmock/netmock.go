// Package netmock simulates a TCP network in memory so adapter tests run
// without sockets. Listeners and dialers communicate through net.Pipe pairs
// with faked addresses; a dial without a matching listener is refused like a
// real connect would be.
package netmock

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// Network is an in-memory address space of listeners. The zero value is not
// usable; create one with New.
type Network struct {
	mu        sync.Mutex
	listeners map[string]*listener
	nextPort  int
}

// New creates an empty network.
func New() *Network {
	return &Network{
		listeners: make(map[string]*listener),
		nextPort:  40000,
	}
}

// Listen binds a listener. Port 0 allocates an ephemeral port, mirroring the
// real stack. The signature matches config.TCPListenerFunc.
func (n *Network) Listen(network string, laddr *net.TCPAddr) (net.Listener, error) {
	if network != "tcp" {
		return nil, fmt.Errorf("unsupported network %q", network)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	addr := *laddr
	if addr.Port == 0 {
		addr.Port = n.nextPort
		n.nextPort++
	}
	if len(addr.IP) == 0 {
		addr.IP = net.IPv4(127, 0, 0, 1)
	}

	key := addr.String()
	if _, exists := n.listeners[key]; exists {
		return nil, fmt.Errorf("address already in use: %s", key)
	}

	l := &listener{
		net:    n,
		addr:   &addr,
		conns:  make(chan net.Conn),
		closed: make(chan struct{}),
	}
	n.listeners[key] = l
	return l, nil
}

// DialContext connects to a bound listener. The signature matches
// config.TCPDialerFunc.
func (n *Network) DialContext(ctx context.Context, network string, laddr, raddr *net.TCPAddr) (net.Conn, error) {
	if network != "tcp" {
		return nil, fmt.Errorf("unsupported network %q", network)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	l, exists := n.listeners[raddr.String()]
	port := n.nextPort
	n.nextPort++
	n.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("connect %s: connection refused", raddr)
	}

	if laddr == nil {
		laddr = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	}

	clientSide, serverSide := net.Pipe()
	client := &conn{Conn: clientSide, local: laddr, remote: l.addr}
	server := &conn{Conn: serverSide, local: l.addr, remote: laddr}

	select {
	case l.conns <- server:
		return client, nil
	case <-l.closed:
		clientSide.Close()
		serverSide.Close()
		return nil, fmt.Errorf("connect %s: connection refused", raddr)
	case <-ctx.Done():
		clientSide.Close()
		serverSide.Close()
		return nil, ctx.Err()
	case <-time.After(time.Second):
		clientSide.Close()
		serverSide.Close()
		return nil, fmt.Errorf("connect %s: timeout", raddr)
	}
}

type listener struct {
	net  *Network
	addr *net.TCPAddr

	conns chan net.Conn

	once   sync.Once
	closed chan struct{}
}

func (l *listener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *listener) Close() error {
	l.once.Do(func() {
		close(l.closed)

		l.net.mu.Lock()
		delete(l.net.listeners, l.addr.String())
		l.net.mu.Unlock()
	})
	return nil
}

func (l *listener) Addr() net.Addr {
	return l.addr
}

var _ net.Listener = (*listener)(nil)

// conn is a net.Pipe end with faked TCP addresses.
type conn struct {
	net.Conn
	local  *net.TCPAddr
	remote *net.TCPAddr
}

func (c *conn) LocalAddr() net.Addr  { return c.local }
func (c *conn) RemoteAddr() net.Addr { return c.remote }
