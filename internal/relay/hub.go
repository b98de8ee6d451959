package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls per-peer queueing and throttling.
type Config struct {
	// SendBuffer is the number of outbound frames queued per peer. A peer
	// whose queue is full when a broadcast arrives is considered too slow
	// and is dropped.
	SendBuffer int

	// RateLimit throttles inbound frames per peer. A zero Burst disables
	// throttling entirely.
	RateLimit RateLimitConfig
}

// RateLimitConfig defines the parameters for per-peer frame rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.RateLimit.Burst > 0 && c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = time.Second
	}
	return c
}

// Hub owns the peer registry and fans inbound frames out to every
// registered peer, the sender included. All methods are safe for
// concurrent use; broadcasts run on the calling goroutine.
type Hub struct {
	log *slog.Logger
	cfg Config
	reg *Registry

	stats stats
	start time.Time

	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewHub creates a hub ready to accept peers. A nil logger discards all
// output.
func NewHub(log *slog.Logger, cfg Config) *Hub {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		log:   log,
		cfg:   cfg.withDefaults(),
		reg:   NewRegistry(),
		start: time.Now(),
	}
}

// Attach registers a peer for conn and starts its pumps. The peer is
// registered before its first read so it cannot miss broadcasts triggered
// by its own earliest frames. Attach fails only once Shutdown has begun,
// in which case conn is closed before returning.
func (h *Hub) Attach(conn Conn) (*Peer, error) {
	if h.closed.Load() {
		_ = conn.Close()
		return nil, ErrHubClosed
	}

	p := newPeer(h, conn)
	h.reg.Register(p)
	p.state.Store(int32(StateActive))

	// Shutdown may have started between the check above and registration.
	// The peer is Active now, so leave tears it down cleanly.
	if h.closed.Load() {
		p.leave("server shutting down", nil)
		return nil, ErrHubClosed
	}

	h.stats.connected.Add(1)
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		p.writePump()
	}()
	go func() {
		defer h.wg.Done()
		p.readPump()
	}()

	h.log.Info("peer connected",
		"peer", p.id, "remote", conn.RemoteAddr(), "total", h.reg.Len())
	return p, nil
}

// detach removes the peer from the registry and records the departure.
// It is called exactly once per peer, by the winner of the disconnect
// race in leave.
func (h *Hub) detach(p *Peer, reason string, cause error) {
	h.reg.Unregister(p.id)
	h.stats.disconnected.Add(1)

	if cause != nil {
		h.log.Warn("peer dropped",
			"peer", p.id, "remote", p.conn.RemoteAddr(),
			"reason", reason, "error", cause, "total", h.reg.Len())
		return
	}
	h.log.Info("peer left",
		"peer", p.id, "remote", p.conn.RemoteAddr(),
		"reason", reason, "total", h.reg.Len())
}

// Broadcast hands msg to every peer registered at the moment of the call,
// including the peer it came from. Delivery is a non-blocking enqueue per
// peer: one slow or dead peer cannot stall the round, it is dropped and
// the round carries on. from names the originating peer and is empty for
// frames injected by the server itself.
func (h *Hub) Broadcast(msg Message, from string) {
	if msg.Type == CloseMessage {
		panic(fmt.Errorf("BUG: close frames are not broadcast"))
	}

	peers := h.reg.Snapshot()
	h.stats.broadcasts.Add(1)
	h.log.Debug("broadcasting frame",
		"from", from, "type", msg.Type.String(), "size", len(msg.Payload), "peers", len(peers))

	for _, p := range peers {
		switch err := p.enqueue(msg); err {
		case nil:
		case ErrPeerGone:
			// Raced with a departure; the peer is already on its way out.
		default:
			h.stats.dropped.Add(1)
			h.log.Warn("dropping slow peer",
				"peer", p.id, "remote", p.conn.RemoteAddr(), "from", from)
			p.leave("send queue full", err)
		}
	}
}

// PeerCount returns the number of currently registered peers.
func (h *Hub) PeerCount() int {
	return h.reg.Len()
}

// Peers returns a snapshot of the currently registered peers.
func (h *Hub) Peers() []*Peer {
	return h.reg.Snapshot()
}

// Shutdown drops every peer and waits for their pumps to finish, or until
// ctx is done. It is safe to call more than once.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.closed.Store(true)

	peers := h.reg.Snapshot()
	h.log.Info("hub shutting down", "peers", len(peers))
	for _, p := range peers {
		p.leave("server shutting down", nil)
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown complete",
			"connects", h.stats.connected.Load(),
			"broadcasts", h.stats.broadcasts.Load(),
			"delivered", h.stats.delivered.Load(),
			"dropped", h.stats.dropped.Load())
		return nil
	case <-ctx.Done():
		h.log.Warn("hub shutdown timed out; some pumps may still be running")
		return context.Cause(ctx)
	}
}
