package relay

import (
	"fmt"
	"sync"
)

// Registry is the shared set of live peers, keyed by peer identity. All
// methods are safe for concurrent use. The registry only tracks membership;
// delivery is the hub's job, which is why Snapshot hands out a copy that
// later registrations and removals cannot disturb.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]*Peer)}
}

// Register adds p under its identity. Identities are minted once per
// connection, so a duplicate means two peers were built with the same
// identity or one was registered twice; both are programmer errors and
// panic rather than silently corrupting the peer set.
func (r *Registry) Register(p *Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[p.id]; exists {
		panic(fmt.Errorf("BUG: peer %s already registered", p.id))
	}
	r.peers[p.id] = p
}

// Unregister removes the peer registered under id and reports whether it
// was present. Removing an unknown or already-removed identity is a no-op,
// so disconnect paths may race without coordination.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[id]; !exists {
		return false
	}
	delete(r.peers, id)
	return true
}

// Snapshot returns the peers registered at the instant of the call. The
// slice is the caller's to keep; peers that leave afterwards still appear
// in it, and peers that join afterwards do not.
func (r *Registry) Snapshot() []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		peers = append(peers, p)
	}
	return peers
}

// Len returns the number of registered peers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
