package stream

import (
	"spliceio/splice/pkg/engine"
	"spliceio/splice/pkg/format"
)

// Metadata is the immutable endpoint view of one connection. It is computed
// once from the channel and never changes afterwards, even if the channel
// goes away.
type Metadata struct {
	localHost  string
	localPort  int
	remoteAddr string
}

func newMetadata(ch engine.Channel) *Metadata {
	m := &Metadata{}

	if la := ch.LocalAddr(); la != nil {
		host, port, err := format.SplitHostPort(la.String())
		if err == nil {
			m.localHost = host
			m.localPort = port
		} else {
			m.localHost = la.String()
		}
	}
	if ra := ch.RemoteAddr(); ra != nil {
		m.remoteAddr = ra.String()
	}

	return m
}

// LocalHost returns the local interface address of the connection.
func (m *Metadata) LocalHost() string { return m.localHost }

// LocalPort returns the local port of the connection.
func (m *Metadata) LocalPort() int { return m.localPort }

// RemoteAddr returns the remote endpoint as "host:port".
func (m *Metadata) RemoteAddr() string { return m.remoteAddr }
