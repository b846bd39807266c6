package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"spliceio/splice/mocks/netmock"
	"spliceio/splice/pkg/config"
	"spliceio/splice/pkg/log"
	"spliceio/splice/pkg/stream"
)

func testConfig(n *netmock.Network) *config.Server {
	return &config.Server{
		Shared: config.Shared{
			Logger: log.NewLoggerTo(io.Discard, false),
			Deps: &config.Dependencies{
				TCPDialer:   n.DialContext,
				TCPListener: n.Listen,
			},
		},
		Host: "127.0.0.1",
		Port: 1234,
	}
}

func dialServer(t *testing.T, n *netmock.Network, srv *Server) net.Conn {
	t.Helper()

	raddr, err := net.ResolveTCPAddr("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("net.ResolveTCPAddr(tcp, %s): %v", srv.Addr(), err)
	}

	conn, err := n.DialContext(context.Background(), "tcp", nil, raddr)
	if err != nil {
		t.Fatalf("dialing %s: %v", raddr, err)
	}
	return conn
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(netmock.New())
	cfg.Port = -1

	if _, err := New(cfg); err == nil {
		t.Error("New() with negative port: expected error, got nil")
	}
}

func TestServeEchoes(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	srv, err := New(testConfig(n))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(func(st *stream.Stream, md *stream.Metadata) {
			io.Copy(st, st)
			st.Close()
		})
	}()

	conn := dialServer(t, n, srv)
	defer conn.Close()

	want := []byte("round and round")
	if _, err := conn.Write(want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := make([]byte, len(want))
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := io.ReadFull(conn, got); err != nil {
		t.Fatalf("reading echo: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("echo = %q, want %q", got, want)
	}

	conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := <-serveErr; err != nil {
		t.Errorf("Serve() error = %v", err)
	}
}

func TestEphemeralPortIntrospection(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	cfg := testConfig(n)
	cfg.Port = 0

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Close()

	// The bound port is known before Serve runs.
	if srv.Port() == 0 {
		t.Error("Port() = 0, want an assigned port")
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	srv, err := New(testConfig(n))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Close()

	mds := make(chan *stream.Metadata, 1)
	go srv.Serve(func(st *stream.Stream, md *stream.Metadata) {
		mds <- md
		io.Copy(io.Discard, st)
		st.Close()
	})

	conn := dialServer(t, n, srv)
	defer conn.Close()

	select {
	case md := <-mds:
		if md.LocalPort() != 1234 {
			t.Errorf("LocalPort() = %d, want 1234", md.LocalPort())
		}
		if md.RemoteAddr() != conn.LocalAddr().String() {
			t.Errorf("RemoteAddr() = %s, want %s", md.RemoteAddr(), conn.LocalAddr())
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handler")
	}
}

func TestMaxConnectionsRejectsExcess(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	cfg := testConfig(n)
	cfg.MaxConnections = 1

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Close()

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	go srv.Serve(func(st *stream.Stream, md *stream.Metadata) {
		started <- struct{}{}
		<-release
		st.Close()
	})

	first := dialServer(t, n, srv)
	defer first.Close()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first connection")
	}

	// The second connection is over the limit and gets closed right away.
	second := dialServer(t, n, srv)
	defer second.Close()

	second.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := second.Read(make([]byte, 1)); err == nil {
		t.Error("Read() on rejected connection: expected error, got nil")
	}

	select {
	case <-started:
		t.Error("second connection was served despite the limit")
	default:
	}

	close(release)
}

func TestShutdownWaitsForConnections(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	srv, err := New(testConfig(n))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	go srv.Serve(func(st *stream.Stream, md *stream.Metadata) {
		close(started)
		<-release
		st.Close()
	})

	conn := dialServer(t, n, srv)
	defer conn.Close()
	<-started

	// With the connection still open, a short deadline expires.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(ctx); err == nil {
		t.Error("Shutdown() with active connection: expected deadline error, got nil")
	}

	close(release)

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		t.Errorf("Shutdown() after release error = %v", err)
	}
}

func TestCloseForcesConnections(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	srv, err := New(testConfig(n))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	started := make(chan struct{})
	readErr := make(chan error, 1)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(func(st *stream.Stream, md *stream.Metadata) {
			close(started)
			_, err := io.ReadAll(st)
			readErr <- err
		})
	}()

	conn := dialServer(t, n, srv)
	defer conn.Close()
	<-started

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := <-serveErr; err != nil {
		t.Errorf("Serve() after Close error = %v", err)
	}

	// ReadAll sees a clean end: a local close is not an error condition.
	select {
	case <-readErr:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forced close to reach the handler")
	}
}

func TestSlowConsumerBackpressure(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	cfg := testConfig(n)
	cfg.QueueLimit = 64

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	go srv.Serve(func(st *stream.Stream, md *stream.Metadata) {
		close(started)
		<-release
		io.Copy(io.Discard, st)
		st.Close()
	})

	conn := dialServer(t, n, srv)
	defer conn.Close()
	<-started

	// The first burst fits one engine read and fills the queue past its
	// limit, pausing reads.
	burst := bytes.Repeat([]byte("b"), 4096)
	if _, err := conn.Write(burst); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}

	// With reads paused further bytes are not drawn off the wire.
	conn.SetWriteDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := conn.Write(burst); err == nil {
		t.Fatal("second Write() completed although the consumer is stalled")
	}

	// Draining the queue resumes reads and the sender proceeds.
	close(release)
	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Write(burst); err != nil {
		t.Fatalf("Write() after drain error = %v", err)
	}
}
