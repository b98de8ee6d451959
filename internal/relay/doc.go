// Package relay implements the core of the message relay: a registry of
// live peers and a hub that fans every inbound frame out to all of them.
//
// The implementation is organized into specialized files for the registry,
// per-peer lifecycle, broadcast dispatch, throttling, and counters to keep
// the codebase maintainable and testable as the project grows.
package relay
