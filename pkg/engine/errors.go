package engine

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// ExpectedDisconnect classifies transport errors that are a normal part of a
// connection ending and should not be reported as failures.
//
// Classification table:
//
//	io.EOF                                  expected  peer finished writing
//	io.ErrClosedPipe                        expected  local side already closed
//	net.ErrClosed                           expected  close raced with an I/O call
//	syscall.ECONNRESET                      expected  peer reset during teardown
//	syscall.EPIPE                           expected  write after peer closed
//	context.Canceled                        expected  caller abandoned the connection
//	"use of closed network connection"      expected  pre-net.ErrClosed stdlib text
//	"connection reset by peer"              expected  reset surfaced as plain text
//	anything else                           reportable
func ExpectedDisconnect(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	// Some transports only surface these as message text.
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection reset by peer")
}
