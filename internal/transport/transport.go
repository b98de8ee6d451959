// Package transport adapts concrete network protocols to the relay.Conn
// contract. Two transports are provided: WebSocket for browser and HTTP
// clients, and a length-prefixed TCP framing for plain socket clients.
// Both enforce the same frame size cap and write deadlines so the hub can
// stay transport-agnostic.
package transport

import "time"

// Options tunes a transport connection. The zero value picks sensible
// defaults for every field.
type Options struct {
	// WriteTimeout bounds each frame write. A peer that cannot take a
	// frame within this window surfaces as a write error.
	WriteTimeout time.Duration

	// PingInterval is the WebSocket keepalive cadence. Ignored by the TCP
	// transport.
	PingInterval time.Duration

	// PongWait is how long a WebSocket connection may stay silent before
	// its reads time out. Must be longer than PingInterval. Ignored by
	// the TCP transport.
	PongWait time.Duration

	// MaxMessageSize caps inbound frame payloads in bytes.
	MaxMessageSize int64
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 54 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 32 << 10
	}
	return o
}

// closeGrace bounds the best-effort close notification written while
// tearing a connection down.
const closeGrace = time.Second
