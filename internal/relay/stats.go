package relay

import (
	"sync/atomic"
	"time"
)

// stats holds the hub's counters. Everything is atomic so the hot paths
// never take a lock just to count.
type stats struct {
	connected    atomic.Int64
	disconnected atomic.Int64
	broadcasts   atomic.Int64
	delivered    atomic.Int64
	dropped      atomic.Int64
	throttled    atomic.Int64
}

// StatsSnapshot is a point-in-time view of the hub's counters, shaped for
// the status endpoint.
type StatsSnapshot struct {
	Peers         int    `json:"peers"`
	TotalConnects int64  `json:"total_connects"`
	Disconnects   int64  `json:"disconnects"`
	Broadcasts    int64  `json:"broadcasts"`
	Delivered     int64  `json:"delivered"`
	DroppedPeers  int64  `json:"dropped_peers"`
	Throttled     int64  `json:"throttled"`
	Uptime        string `json:"uptime"`
}

// Stats returns the current counter values.
func (h *Hub) Stats() StatsSnapshot {
	return StatsSnapshot{
		Peers:         h.reg.Len(),
		TotalConnects: h.stats.connected.Load(),
		Disconnects:   h.stats.disconnected.Load(),
		Broadcasts:    h.stats.broadcasts.Load(),
		Delivered:     h.stats.delivered.Load(),
		DroppedPeers:  h.stats.dropped.Load(),
		Throttled:     h.stats.throttled.Load(),
		Uptime:        time.Since(h.start).Round(time.Second).String(),
	}
}
