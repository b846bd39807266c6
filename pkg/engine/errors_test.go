package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
)

func TestExpectedDisconnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"EOF", io.EOF, true},
		{"closed pipe", io.ErrClosedPipe, true},
		{"net closed", net.ErrClosed, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"broken pipe", syscall.EPIPE, true},
		{"context canceled", context.Canceled, true},
		{"wrapped EOF", fmt.Errorf("read loop: %w", io.EOF), true},
		{"wrapped reset in op error", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"closed conn as text", errors.New("accept tcp 127.0.0.1:0: use of closed network connection"), true},
		{"reset as text", errors.New("readfrom: connection reset by peer"), true},
		{"refused is reportable", syscall.ECONNREFUSED, false},
		{"deadline is reportable", context.DeadlineExceeded, false},
		{"arbitrary error", errors.New("tls: bad record MAC"), false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ExpectedDisconnect(tc.err); got != tc.want {
				t.Errorf("ExpectedDisconnect(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
