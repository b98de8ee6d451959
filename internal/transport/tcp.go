package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/relaykit/wsrelay/internal/relay"
)

// Frame kinds on the wire. The values mirror the WebSocket opcodes so a
// capture of either transport reads the same way.
const (
	frameText   byte = 0x1
	frameBinary byte = 0x2
	frameClose  byte = 0x8
)

// headerSize is one kind byte plus a big-endian uint32 payload length.
const headerSize = 5

// TCPConn carries a peer over a plain TCP connection using a fixed
// five-byte frame header. The framing is symmetric, so the same type
// serves both the accepting and the dialing end.
type TCPConn struct {
	conn net.Conn
	br   *bufio.Reader
	opts Options

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewTCPConn wraps an established TCP connection.
func NewTCPConn(conn net.Conn, opts Options) *TCPConn {
	return &TCPConn{
		conn: conn,
		br:   bufio.NewReader(conn),
		opts: opts.withDefaults(),
	}
}

// DialTCP connects to a framed TCP relay endpoint.
func DialTCP(ctx context.Context, addr string, opts Options) (*TCPConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return NewTCPConn(conn, opts), nil
}

// ReadMessage blocks until a whole frame has been read. A close frame is
// returned as a relay.CloseMessage with a nil error.
func (c *TCPConn) ReadMessage() (relay.Message, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(c.br, hdr[:]); err != nil {
		return relay.Message{}, err
	}

	kind := hdr[0]
	size := binary.BigEndian.Uint32(hdr[1:])
	if int64(size) > c.opts.MaxMessageSize {
		return relay.Message{}, fmt.Errorf("transport: frame of %d bytes exceeds limit of %d", size, c.opts.MaxMessageSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(c.br, payload); err != nil {
		return relay.Message{}, err
	}

	switch kind {
	case frameText:
		return relay.Message{Type: relay.TextMessage, Payload: payload}, nil
	case frameBinary:
		return relay.Message{Type: relay.BinaryMessage, Payload: payload}, nil
	case frameClose:
		return relay.Message{Type: relay.CloseMessage}, nil
	default:
		return relay.Message{}, fmt.Errorf("transport: unknown frame kind 0x%x", kind)
	}
}

// WriteMessage writes one whole frame under the configured write deadline.
func (c *TCPConn) WriteMessage(msg relay.Message) error {
	var kind byte
	switch msg.Type {
	case relay.TextMessage:
		kind = frameText
	case relay.BinaryMessage:
		kind = frameBinary
	case relay.CloseMessage:
		kind = frameClose
	default:
		return fmt.Errorf("transport: cannot write message type %d", msg.Type)
	}

	frame := make([]byte, headerSize+len(msg.Payload))
	frame[0] = kind
	binary.BigEndian.PutUint32(frame[1:], uint32(len(msg.Payload)))
	copy(frame[headerSize:], msg.Payload)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
		return err
	}
	_, err := c.conn.Write(frame)
	return err
}

// Close sends a best-effort close frame and releases the connection. It is
// safe to call more than once; a pending ReadMessage is unblocked.
func (c *TCPConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(closeGrace))
		_, _ = c.conn.Write([]byte{frameClose, 0, 0, 0, 0})
		c.writeMu.Unlock()

		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr describes the remote end of the connection.
func (c *TCPConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
