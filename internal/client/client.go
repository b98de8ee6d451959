// Package client provides a small WebSocket client for the relay, used by
// the CLI commands and by integration tests. It hides the gorilla plumbing
// behind send calls and a receive channel.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaykit/wsrelay/internal/relay"
)

const writeTimeout = 10 * time.Second

// Client is one connection to a relay. Messages arriving from the relay
// are delivered on the channel returned by Messages; the channel closes
// when the connection ends, whatever the reason.
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger

	messages chan relay.Message

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects to a relay WebSocket endpoint, e.g. ws://host:8080/ws.
func Dial(ctx context.Context, url string, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	c := &Client{
		conn:     conn,
		log:      log,
		messages: make(chan relay.Message, 32),
	}

	go c.readLoop()
	return c, nil
}

// Messages returns the channel of frames relayed to this client. The
// channel is closed when the connection drops.
func (c *Client) Messages() <-chan relay.Message {
	return c.messages
}

// SendText relays a text frame to every peer, this client included.
func (c *Client) SendText(text string) error {
	return c.write(websocket.TextMessage, []byte(text))
}

// SendBinary relays a binary frame to every peer, this client included.
func (c *Client) SendBinary(payload []byte) error {
	return c.write(websocket.BinaryMessage, payload)
}

func (c *Client) write(messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, payload)
}

// Close performs an orderly shutdown: a close frame, then the connection.
// Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()

		err = c.conn.Close()
	})
	return err
}

// readLoop moves inbound frames onto the messages channel until the
// connection ends.
func (c *Client) readLoop() {
	defer close(c.messages)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				c.log.Debug("read loop ended", "error", err)
			}
			return
		}

		switch messageType {
		case websocket.TextMessage:
			c.messages <- relay.Message{Type: relay.TextMessage, Payload: data}
		case websocket.BinaryMessage:
			c.messages <- relay.Message{Type: relay.BinaryMessage, Payload: data}
		}
	}
}
