// Package server implements the network-facing side of the relay: an HTTP
// server with WebSocket upgrades, an optional framed TCP acceptor, and the
// origin policy that guards browser connections.
//
// The implementation is organized into specialized files for the listeners,
// routing, HTTP handlers, and origin validation to keep the codebase
// maintainable and testable as the project grows.
package server
