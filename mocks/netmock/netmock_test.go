package netmock

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

func tcpAddr(t *testing.T, s string) *net.TCPAddr {
	t.Helper()

	addr, err := net.ResolveTCPAddr("tcp", s)
	if err != nil {
		t.Fatalf("net.ResolveTCPAddr(tcp, %s): %v", s, err)
	}
	return addr
}

func TestDialAndAccept(t *testing.T) {
	t.Parallel()

	n := New()

	l, err := n.Listen("tcp", tcpAddr(t, "127.0.0.1:1234"))
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 64)
		nr, err := conn.Read(buf)
		if err != nil {
			return
		}
		conn.Write(buf[:nr])
	}()

	conn, err := n.DialContext(context.Background(), "tcp", nil, tcpAddr(t, "127.0.0.1:1234"))
	if err != nil {
		t.Fatalf("DialContext() error = %v", err)
	}
	defer conn.Close()

	want := []byte("hello")
	if _, err := conn.Write(want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := make([]byte, len(want))
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := conn.Read(got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("echo = %q, want %q", got, want)
	}

	if conn.RemoteAddr().String() != "127.0.0.1:1234" {
		t.Errorf("RemoteAddr() = %s, want 127.0.0.1:1234", conn.RemoteAddr())
	}
}

func TestDialRefusedWithoutListener(t *testing.T) {
	t.Parallel()

	n := New()

	if _, err := n.DialContext(context.Background(), "tcp", nil, tcpAddr(t, "127.0.0.1:9")); err == nil {
		t.Error("DialContext() without listener: expected error, got nil")
	}
}

func TestEphemeralPortAssignment(t *testing.T) {
	t.Parallel()

	n := New()

	l1, err := n.Listen("tcp", tcpAddr(t, "127.0.0.1:0"))
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	l2, err := n.Listen("tcp", tcpAddr(t, "127.0.0.1:0"))
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	if l1.Addr().String() == l2.Addr().String() {
		t.Errorf("two ephemeral listeners share address %s", l1.Addr())
	}
	if l1.Addr().(*net.TCPAddr).Port == 0 {
		t.Error("ephemeral listener kept port 0")
	}
}

func TestListenTwiceFails(t *testing.T) {
	t.Parallel()

	n := New()

	if _, err := n.Listen("tcp", tcpAddr(t, "127.0.0.1:1234")); err != nil {
		t.Fatalf("first Listen() error = %v", err)
	}
	if _, err := n.Listen("tcp", tcpAddr(t, "127.0.0.1:1234")); err == nil {
		t.Error("second Listen() on same address: expected error, got nil")
	}
}

func TestAcceptAfterClose(t *testing.T) {
	t.Parallel()

	n := New()

	l, err := n.Listen("tcp", tcpAddr(t, "127.0.0.1:1234"))
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	l.Close()

	if _, err := l.Accept(); err == nil {
		t.Error("Accept() after Close: expected error, got nil")
	}

	// The address is free again.
	if _, err := n.Listen("tcp", tcpAddr(t, "127.0.0.1:1234")); err != nil {
		t.Errorf("Listen() after Close error = %v", err)
	}
}
