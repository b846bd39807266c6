package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"spliceio/splice/mocks/netmock"
	"spliceio/splice/pkg/config"
	"spliceio/splice/pkg/log"
)

func testConfig(n *netmock.Network) *config.Client {
	return &config.Client{
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

// listenEcho binds a mock listener on 127.0.0.1:1234 and echoes everything
// on every accepted connection.
func listenEcho(t *testing.T, n *netmock.Network) net.Listener {
	t.Helper()

	laddr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:1234")
	if err != nil {
		t.Fatalf("net.ResolveTCPAddr(): %v", err)
	}

	l, err := n.Listen("tcp", laddr)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				io.Copy(conn, conn)
			}()
		}
	}()

	return l
}

func TestConnectEchoes(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	listenEcho(t, n)

	st, err := Connect(context.Background(), testConfig(n))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer st.Close()

	want := []byte("there and back")
	if _, err := st.Write(want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := make([]byte, len(want))
	if _, err := io.ReadFull(st, got); err != nil {
		t.Fatalf("reading echo: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("echo = %q, want %q", got, want)
	}

	if st.Metadata().RemoteAddr() != "127.0.0.1:1234" {
		t.Errorf("RemoteAddr() = %s, want 127.0.0.1:1234", st.Metadata().RemoteAddr())
	}
}

func TestConnectRefused(t *testing.T) {
	t.Parallel()

	n := netmock.New() // nothing listening

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, testConfig(n))
	if err == nil {
		t.Fatal("Connect() without listener: expected error, got nil")
	}
	if !errors.Is(err, ErrUnableToConnect) {
		t.Errorf("error = %v, want ErrUnableToConnect", err)
	}
}

func TestConnectRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(netmock.New())
	cfg.Port = 0

	if _, err := Connect(context.Background(), cfg); err == nil {
		t.Error("Connect() with port 0: expected error, got nil")
	}
}

func TestConnectAsyncSettlesExactlyOnce(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	listenEcho(t, n)

	p := ConnectAsync(context.Background(), testConfig(n))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	st1, err1 := p.Await(ctx)
	st2, err2 := p.Await(ctx)

	if err1 != nil || err2 != nil {
		t.Fatalf("Await() errors = %v, %v", err1, err2)
	}
	if st1 != st2 {
		t.Error("two awaits returned different streams")
	}
	st1.Close()
}

func TestConnectCanceledContext(t *testing.T) {
	t.Parallel()

	n := netmock.New()
	listenEcho(t, n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Connect(ctx, testConfig(n))
	if err == nil {
		t.Fatal("Connect() with canceled context: expected error, got nil")
	}
}

func TestPeerCloseSurfacesAsEOF(t *testing.T) {
	t.Parallel()

	n := netmock.New()

	laddr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:1234")
	if err != nil {
		t.Fatalf("net.ResolveTCPAddr(): %v", err)
	}
	l, err := n.Listen("tcp", laddr)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		conn.Write([]byte("bye"))
		conn.Close()
	}()

	st, err := Connect(context.Background(), testConfig(n))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer st.Close()

	// The data written before the close still arrives, then EOF.
	got, err := io.ReadAll(st)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, []byte("bye")) {
		t.Errorf("ReadAll() = %q, want %q", got, "bye")
	}
}
