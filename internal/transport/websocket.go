package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaykit/wsrelay/internal/relay"
)

// WSConn carries a peer over a WebSocket connection. It owns the keepalive
// ping loop and maps WebSocket frame types onto relay messages. Writes are
// serialized internally; gorilla/websocket supports only one concurrent
// writer.
type WSConn struct {
	ws   *websocket.Conn
	opts Options

	// writeMu serializes data frames, pings, and the close frame.
	writeMu sync.Mutex

	stop      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewWSConn wraps an upgraded or dialed WebSocket connection. It installs
// the read limit and pong handling and starts the keepalive loop, so the
// caller only ever deals in whole frames.
func NewWSConn(ws *websocket.Conn, opts Options) *WSConn {
	opts = opts.withDefaults()
	c := &WSConn{
		ws:   ws,
		opts: opts,
		stop: make(chan struct{}),
	}

	ws.SetReadLimit(opts.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(opts.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	go c.keepalive()
	return c
}

// ReadMessage blocks until the next data frame arrives. Orderly close
// frames from the remote end are returned as a relay.CloseMessage with a
// nil error.
func (c *WSConn) ReadMessage() (relay.Message, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				return relay.Message{Type: relay.CloseMessage}, nil
			}
			return relay.Message{}, err
		}

		switch mt {
		case websocket.TextMessage:
			return relay.Message{Type: relay.TextMessage, Payload: data}, nil
		case websocket.BinaryMessage:
			return relay.Message{Type: relay.BinaryMessage, Payload: data}, nil
		default:
			// Control frames are consumed by the handlers gorilla
			// installs; anything else is skipped.
		}
	}
}

// WriteMessage writes one whole frame under the configured write deadline.
func (c *WSConn) WriteMessage(msg relay.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
		return err
	}

	switch msg.Type {
	case relay.TextMessage:
		return c.ws.WriteMessage(websocket.TextMessage, msg.Payload)
	case relay.BinaryMessage:
		return c.ws.WriteMessage(websocket.BinaryMessage, msg.Payload)
	case relay.CloseMessage:
		return c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	default:
		return fmt.Errorf("transport: cannot write message type %d", msg.Type)
	}
}

// Close sends a best-effort close frame and releases the connection. It is
// safe to call more than once; a pending ReadMessage is unblocked.
func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)

		c.writeMu.Lock()
		_ = c.ws.SetWriteDeadline(time.Now().Add(closeGrace))
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()

		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// RemoteAddr describes the remote end of the connection.
func (c *WSConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// keepalive pings the remote end on a ticker. Pong handling extends the
// read deadline, so a silent or dead peer eventually times out its reads
// and is torn down by the hub.
func (c *WSConn) keepalive() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			err := c.ws.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				// The reader will surface the failure; just stop pinging.
				_ = c.ws.Close()
				return
			}
		}
	}
}
