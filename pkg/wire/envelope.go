// Package wire defines the envelope chat clients exchange through a relay.
//
// The relay itself never inspects payloads; this envelope is an application
// convention layered on top, so chat participants can tell who said what
// and announce joins and leaves. It is encoded as protocol buffers wire
// format, written by hand with the protowire package: three fields is not
// enough schema to justify code generation, and the hand-rolled form stays
// compatible with any real .proto of the same shape.
//
//	field 1 (varint): kind
//	field 2 (bytes):  sender
//	field 3 (bytes):  body
package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the envelope message.
const (
	fieldKind   protowire.Number = 1
	fieldSender protowire.Number = 2
	fieldBody   protowire.Number = 3
)

// Kind says what an envelope announces.
type Kind int

const (
	// KindChat carries a chat line in Body.
	KindChat Kind = 1
	// KindJoin announces that Sender joined; Body is unused.
	KindJoin Kind = 2
	// KindLeave announces that Sender left; Body is unused.
	KindLeave Kind = 3
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindChat:
		return "CHAT"
	case KindJoin:
		return "JOIN"
	case KindLeave:
		return "LEAVE"
	default:
		return "UNKNOWN"
	}
}

// Envelope is one chat event.
type Envelope struct {
	Kind   Kind
	Sender string
	Body   []byte
}

// Chat builds a chat envelope from sender and text.
func Chat(sender, text string) *Envelope {
	return &Envelope{Kind: KindChat, Sender: sender, Body: []byte(text)}
}

// Join builds a join announcement for sender.
func Join(sender string) *Envelope {
	return &Envelope{Kind: KindJoin, Sender: sender}
}

// Leave builds a leave announcement for sender.
func Leave(sender string) *Envelope {
	return &Envelope{Kind: KindLeave, Sender: sender}
}

// Encode returns the protobuf encoding of the envelope.
func (e *Envelope) Encode() []byte {
	buf := make([]byte, 0, 16+len(e.Sender)+len(e.Body))
	buf = protowire.AppendTag(buf, fieldKind, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(e.Kind))
	if e.Sender != "" {
		buf = protowire.AppendTag(buf, fieldSender, protowire.BytesType)
		buf = protowire.AppendString(buf, e.Sender)
	}
	if len(e.Body) > 0 {
		buf = protowire.AppendTag(buf, fieldBody, protowire.BytesType)
		buf = protowire.AppendBytes(buf, e.Body)
	}
	return buf
}

// Decode parses an envelope from data. Unknown fields are skipped so newer
// writers stay readable.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("wire: malformed envelope: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: malformed kind: %w", protowire.ParseError(n))
			}
			e.Kind = Kind(v)
			data = data[n:]

		case num == fieldSender && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: malformed sender: %w", protowire.ParseError(n))
			}
			e.Sender = v
			data = data[n:]

		case num == fieldBody && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("wire: malformed body: %w", protowire.ParseError(n))
			}
			e.Body = append([]byte(nil), v...)
			data = data[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("wire: malformed field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if e.Kind == 0 {
		return nil, errors.New("wire: envelope missing kind")
	}
	return &e, nil
}

// Text returns the body as a string, for chat envelopes.
func (e *Envelope) Text() string {
	return string(e.Body)
}
