// Package config holds the option structs for servers and clients plus
// injectable dependencies for tests.
package config

import (
	"crypto/tls"
	"fmt"
	"time"

	"spliceio/splice/pkg/engine"
	"spliceio/splice/pkg/engine/netengine"
	"spliceio/splice/pkg/format"
	"spliceio/splice/pkg/log"
)

// Protocol selects the transport under the engine.
type Protocol int

const (
	ProtoTCP Protocol = iota
	ProtoWS
	ProtoWSS
	ProtoKCP
	ProtoMux
)

// String returns the protocol's flag spelling.
func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoWS:
		return "ws"
	case ProtoWSS:
		return "wss"
	case ProtoKCP:
		return "kcp"
	case ProtoMux:
		return "mux"
	default:
		return ""
	}
}

// ParseProtocol parses a protocol flag value.
func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "tcp", "":
		return ProtoTCP, nil
	case "ws":
		return ProtoWS, nil
	case "wss":
		return ProtoWSS, nil
	case "kcp":
		return ProtoKCP, nil
	case "mux":
		return ProtoMux, nil
	default:
		return ProtoTCP, fmt.Errorf("unknown protocol %q", s)
	}
}

// KeySalt is mixed into user keys before deriving certificates. Overwrite
// with a custom value during release builds.
var KeySalt = "mUe2yrNqlpCLh0Qb7dkWJ3c8vXGnsTZa"

// Shared holds the options common to servers and clients.
type Shared struct {
	Protocol Protocol
	SSL      bool
	Key      string

	// TLSConfig overrides the key-derived TLS setup when set.
	TLSConfig *tls.Config

	// QueueLimit bounds inbound buffering per connection in bytes.
	// Zero selects the stream package default.
	QueueLimit int

	// Bootstrap customizes the engine before it serves connections.
	Bootstrap netengine.BootstrapHook
	// Pipeline wraps each connection's event handler.
	Pipeline engine.PipelineHook

	Timeout time.Duration
	LogFile string
	Verbose bool
	Logger  *log.Logger

	Deps *Dependencies
}

func (c *Shared) validate() []error {
	var errs []error

	if !c.SSL && c.Key != "" {
		errs = append(errs, fmt.Errorf("'--key' requires '--ssl'"))
	}
	if c.TLSConfig != nil && !c.SSL {
		errs = append(errs, fmt.Errorf("a TLS config requires '--ssl'"))
	}
	if c.QueueLimit < 0 {
		errs = append(errs, fmt.Errorf("the queue limit must not be negative"))
	}

	return errs
}

// GetKey returns the salted key, or "" when no key is configured.
func (c *Shared) GetKey() string {
	if c.Key == "" {
		return ""
	}

	return KeySalt + c.Key
}

// Server holds the options of the server start operation.
type Server struct {
	Shared

	// Host is the bind address. Empty binds all interfaces.
	Host string
	// Port is the bind port. 0 picks an ephemeral port, introspectable
	// through the server handle.
	Port int

	// MaxConnections limits concurrently served connections. 0 means no
	// limit.
	MaxConnections int
}

// Validate reports all configuration errors at once.
func (c *Server) Validate() []error {
	errs := c.validate()

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("'--port' must be in [0, 65535]"))
	}
	if c.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("'--max-conns' must not be negative"))
	}

	return errs
}

// Client holds the options of the client connect operation.
type Client struct {
	Shared

	Host string
	Port int

	// RemoteAddr overrides Host and Port with an explicit socket address.
	RemoteAddr string
	// LocalAddr optionally binds the outgoing connection to an interface.
	LocalAddr string

	// Insecure skips certificate validation for SSL connections.
	Insecure bool
}

// Validate reports all configuration errors at once.
func (c *Client) Validate() []error {
	errs := c.validate()

	if c.RemoteAddr == "" && (c.Port < 1 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("'--port' must be in [1, 65535]"))
	}
	if c.Insecure && !c.SSL {
		errs = append(errs, fmt.Errorf("'--insecure' requires '--ssl'"))
	}
	if c.Insecure && c.Key != "" {
		errs = append(errs, fmt.Errorf("'--insecure' and '--key' are mutually exclusive"))
	}

	return errs
}

// Addr returns the effective remote address of a client config.
func (c *Client) Addr() string {
	if c.RemoteAddr != "" {
		return c.RemoteAddr
	}
	return format.Addr(c.Host, c.Port)
}
