// Package server exposes HTTP handlers, including WebSocket upgrades and
// the health and status endpoints.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/relaykit/wsrelay/internal/relay"
	"github.com/relaykit/wsrelay/internal/transport"
)

// handleWS upgrades the HTTP connection and attaches the result to the hub.
// Upgrade failures are request-scoped: they are logged and answered by the
// upgrader itself, and never disturb already-connected peers.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	if _, err := s.hub.Attach(transport.NewWSConn(conn, s.wsOpts)); err != nil {
		if !errors.Is(err, relay.ErrHubClosed) {
			s.log.Warn("attach failed", "remote", r.RemoteAddr, "error", err)
		}
	}
}

// handleHealthz provides a liveness check that answers as long as the HTTP
// listener is up.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "ok")
}

// handleStatusz reports the hub's counters as JSON.
func (s *Server) handleStatusz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.hub.Stats()); err != nil {
		s.log.Warn("error writing status response", "error", err)
	}
}
