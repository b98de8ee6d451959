package relay

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

// scriptedConn is an in-memory Conn for tests. Inbound frames are injected
// on the reads channel and surface from ReadMessage; outbound frames land
// on the writes channel for the test to collect.
type scriptedConn struct {
	reads  chan Message
	writes chan Message

	// gate, when non-nil, blocks every write until it is closed. It
	// simulates a peer that stops draining its connection.
	gate chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
}

func newScriptedConn() *scriptedConn {
	return &scriptedConn{
		reads:  make(chan Message, 16),
		writes: make(chan Message, 256),
		closed: make(chan struct{}),
	}
}

// newStalledConn returns a conn whose writes block until release is called.
func newStalledConn() (*scriptedConn, func()) {
	c := newScriptedConn()
	c.gate = make(chan struct{})
	var once sync.Once
	return c, func() { once.Do(func() { close(c.gate) }) }
}

func (c *scriptedConn) ReadMessage() (Message, error) {
	select {
	case msg, ok := <-c.reads:
		if !ok {
			return Message{}, io.EOF
		}
		return msg, nil
	case <-c.closed:
		return Message{}, net.ErrClosed
	}
}

func (c *scriptedConn) WriteMessage(msg Message) error {
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-c.closed:
			return net.ErrClosed
		}
	}

	select {
	case c.writes <- msg:
		return nil
	case <-c.closed:
		return net.ErrClosed
	}
}

func (c *scriptedConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *scriptedConn) RemoteAddr() string { return "scripted:0" }

// inject schedules msg as the conn's next inbound frame.
func (c *scriptedConn) inject(msg Message) { c.reads <- msg }

// endOfStream makes the next read report a closed stream.
func (c *scriptedConn) endOfStream() { close(c.reads) }

// isClosed reports whether Close has been called.
func (c *scriptedConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// collect waits for exactly n outbound frames.
func (c *scriptedConn) collect(t *testing.T, n int) []Message {
	t.Helper()

	out := make([]Message, 0, n)
	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()

	for len(out) < n {
		select {
		case msg := <-c.writes:
			out = append(out, msg)
		case <-timer.C:
			t.Fatalf("timed out after collecting %d of %d frames", len(out), n)
		}
	}
	return out
}

// expectSilence fails the test if any frame is delivered within the window.
func (c *scriptedConn) expectSilence(t *testing.T) {
	t.Helper()

	select {
	case msg := <-c.writes:
		t.Fatalf("unexpected %s frame delivered: %q", msg.Type, msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}
