package relay

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// PeerState tracks where a peer is in its lifecycle. A peer moves strictly
// forward: Connecting until it is registered, Active while its pumps run,
// Closing while the winner of the disconnect race tears it down, Closed
// once the transport has been released. No state is ever re-entered.
type PeerState int32

const (
	// StateConnecting is the state before the peer is registered.
	StateConnecting PeerState = iota
	// StateActive means the peer is registered and its pumps are running.
	StateActive
	// StateClosing means teardown has begun.
	StateClosing
	// StateClosed means the peer is deregistered and its transport released.
	StateClosed
)

// String returns a human-readable name for the state.
func (s PeerState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Peer couples one transport connection to the hub. Inbound frames are read
// by readPump and broadcast; outbound frames are queued on send and drained
// by writePump, the only goroutine that writes to the transport.
type Peer struct {
	id   string
	conn Conn
	hub  *Hub
	log  *slog.Logger

	// send is the outbound queue. The hub enqueues without blocking; a
	// full queue marks the peer too slow to keep and it is dropped.
	send chan Message

	// quit is closed exactly once, by whichever goroutine wins the
	// disconnect race in leave. It releases the write side: the pump
	// stops draining and the hub stops enqueueing.
	quit chan struct{}

	state   atomic.Int32
	limiter *tokenBucket
}

func newPeer(hub *Hub, conn Conn) *Peer {
	var limiter *tokenBucket
	if hub.cfg.RateLimit.Burst > 0 {
		limiter = newTokenBucket(hub.cfg.RateLimit.Burst, hub.cfg.RateLimit.RefillInterval)
	}

	p := &Peer{
		id:      uuid.NewString(),
		conn:    conn,
		hub:     hub,
		log:     hub.log,
		send:    make(chan Message, hub.cfg.SendBuffer),
		quit:    make(chan struct{}),
		limiter: limiter,
	}
	p.state.Store(int32(StateConnecting))
	return p
}

// ID returns the peer's identity within the registry.
func (p *Peer) ID() string { return p.id }

// RemoteAddr describes the remote end of the peer's transport.
func (p *Peer) RemoteAddr() string { return p.conn.RemoteAddr() }

// State returns the peer's current lifecycle state.
func (p *Peer) State() PeerState { return PeerState(p.state.Load()) }

// enqueue offers msg to the write pump without blocking. It returns
// ErrPeerGone when the peer has left the hub and ErrQueueFull when the
// queue has no room, leaving the eviction decision to the caller.
func (p *Peer) enqueue(msg Message) error {
	select {
	case <-p.quit:
		return ErrPeerGone
	default:
	}

	select {
	case p.send <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// leave is the only path out of the hub. Every disconnect reason funnels
// here: a close frame, a read or write failure, a full send queue, or hub
// shutdown. The first caller wins the Active -> Closing transition and
// performs the teardown; later callers return immediately, which is what
// makes concurrent disconnect reports safe.
func (p *Peer) leave(reason string, cause error) {
	if !p.state.CompareAndSwap(int32(StateActive), int32(StateClosing)) {
		return
	}

	p.hub.detach(p, reason, cause)
	close(p.quit)
	if err := p.conn.Close(); err != nil && !isExpectedCloseError(err) {
		p.log.Warn("error closing transport", "peer", p.id, "error", err)
	}
	p.state.Store(int32(StateClosed))
}

// readPump reads inbound frames and broadcasts them until the stream ends.
// It owns the read side of the transport and exits on the first close
// frame or read failure, reporting the reason to leave.
func (p *Peer) readPump() {
	for {
		msg, err := p.conn.ReadMessage()
		if err != nil {
			if isExpectedCloseError(err) {
				p.leave("connection closed", nil)
			} else {
				p.leave("read failed", err)
			}
			return
		}

		if msg.Type == CloseMessage {
			p.leave("peer closed", nil)
			return
		}

		if p.limiter != nil && !p.limiter.allow() {
			p.hub.stats.throttled.Add(1)
			p.log.Warn("rate limit exceeded; discarding frame",
				"peer", p.id, "remote", p.conn.RemoteAddr(), "type", msg.Type.String())
			continue
		}

		p.hub.Broadcast(msg, p.id)
	}
}

// writePump drains the send queue onto the transport. It is the sole
// writer of data frames, which is what keeps delivery to a peer in the
// order frames were enqueued.
func (p *Peer) writePump() {
	for {
		select {
		case <-p.quit:
			return
		case msg := <-p.send:
			if err := p.conn.WriteMessage(msg); err != nil {
				p.leave("write failed", err)
				return
			}
			p.hub.stats.delivered.Add(1)
		}
	}
}
