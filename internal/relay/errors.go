package relay

import (
	"errors"
	"io"
	"net"
	"strings"
)

var (
	// ErrHubClosed is returned by Attach once Shutdown has begun.
	ErrHubClosed = errors.New("relay: hub closed")

	// ErrQueueFull reports that a peer's send queue was full when the hub
	// tried to enqueue a frame. The hub drops such peers rather than let
	// them stall a broadcast round.
	ErrQueueFull = errors.New("relay: send queue full")

	// ErrPeerGone reports that a peer had already left the hub by the time
	// a frame was offered to it.
	ErrPeerGone = errors.New("relay: peer gone")
)

// isExpectedCloseError checks if an error is expected during connection
// closure, so orderly departures are not logged as failures.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
