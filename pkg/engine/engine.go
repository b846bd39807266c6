// Package engine defines the capability surface of the network engine that
// drives splice streams. The engine owns the sockets and delivers lifecycle
// events; the stream, server, and client packages only consume this interface
// and stay agnostic to how reads are scheduled or paused underneath.
//
// Events for a single Channel are delivered serially: no two Handler methods
// run concurrently for the same connection, and Read is never called before
// Active or after Inactive. Handler methods must not block; slow consumers
// are handled through PauseReads/ResumeReads, not by stalling the event
// delivery goroutine.
package engine

import "net"

// Channel is the engine-owned handle for one live connection. Application
// code never owns a Channel directly; it reaches it through a stream.
type Channel interface {
	// LocalAddr returns the local endpoint of the connection.
	LocalAddr() net.Addr
	// RemoteAddr returns the remote endpoint of the connection.
	RemoteAddr() net.Addr

	// Write submits bytes to the engine write path. It blocks while the
	// transport is not writable and serializes concurrent callers, so bytes
	// hit the wire in call order.
	Write(p []byte) (int, error)

	// CloseWrite shuts down the write half, allowing the read half to keep
	// draining. Transports without half-close fall back to a full close.
	CloseWrite() error

	// Close tears the connection down immediately. It is idempotent.
	Close() error

	// PauseReads stops the engine from issuing further reads on this
	// connection until ResumeReads is called. Already-delivered events are
	// unaffected.
	PauseReads()
	// ResumeReads re-enables reads after PauseReads.
	ResumeReads()
}

// Handler receives the lifecycle events of exactly one Channel. One handler
// instance serves one connection and is never shared.
type Handler interface {
	// Active fires once when the connection is established.
	Active(ch Channel)
	// Read fires for every chunk the engine received. The slice is owned by
	// the receiver.
	Read(ch Channel, p []byte)
	// Inactive fires exactly once when the connection is gone. err is nil
	// for a clean shutdown and carries the transport error otherwise.
	Inactive(ch Channel, err error)
	// Caught fires for errors the engine observed that did not necessarily
	// end the connection. Inactive still fires separately.
	Caught(ch Channel, err error)
}

// InstallFunc builds the event handler for a freshly established Channel.
// It is the "install into pipeline" hook: it runs before any event fires.
type InstallFunc func(ch Channel) Handler

// PipelineHook wraps a connection's event handler, letting callers observe
// or alter events before the adapter sees them.
type PipelineHook func(ch Channel, next Handler) Handler
