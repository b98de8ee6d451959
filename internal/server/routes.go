// Package server wires HTTP handlers into a gorilla/mux router via routing
// helpers.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// routes configures and returns the router with all application routes:
// the WebSocket endpoint plus health and status checks. Method matching is
// left to the router, so anything but GET gets a 405 without touching the
// handlers.
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/statusz", s.handleStatusz).Methods(http.MethodGet)
	return r
}
