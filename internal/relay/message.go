package relay

// MessageType identifies how a relayed frame should be interpreted.
type MessageType int

const (
	// TextMessage carries a UTF-8 text payload.
	TextMessage MessageType = iota + 1
	// BinaryMessage carries an opaque byte payload.
	BinaryMessage
	// CloseMessage signals an orderly end of the peer's stream. It never
	// carries a payload and is never broadcast.
	CloseMessage
)

// String returns a human-readable name for the message type.
func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	case CloseMessage:
		return "close"
	default:
		return "unknown"
	}
}

// Message is a single relayed frame. The hub treats the payload as opaque
// bytes; it is handed to every peer exactly as it arrived.
type Message struct {
	Type    MessageType
	Payload []byte
}

// Text builds a text frame from s.
func Text(s string) Message {
	return Message{Type: TextMessage, Payload: []byte(s)}
}

// Binary builds a binary frame wrapping b. The payload is not copied.
func Binary(b []byte) Message {
	return Message{Type: BinaryMessage, Payload: b}
}

// Conn is the transport contract the hub relies on. Implementations live in
// the transport package; anything that can move whole frames in both
// directions can carry a peer.
type Conn interface {
	// ReadMessage blocks until the next inbound frame arrives. An orderly
	// shutdown by the remote end is reported as a CloseMessage with a nil
	// error; every other failure is returned as an error. Close unblocks
	// a pending read.
	ReadMessage() (Message, error)

	// WriteMessage writes one whole frame. Implementations apply their own
	// write deadline so a stalled remote end surfaces as an error rather
	// than blocking forever.
	WriteMessage(Message) error

	// Close releases the underlying transport. It is safe to call more
	// than once and from multiple goroutines.
	Close() error

	// RemoteAddr describes the remote end for logging.
	RemoteAddr() string
}
