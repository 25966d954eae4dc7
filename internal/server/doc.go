// Package server implements the core HTTP and WebSocket listener functionality
// for wsgate: it upgrades incoming HTTP requests to WebSocket connections and
// dispatches per-connection lifecycle events to a pluggable handler.
//
// The implementation is organized into specialized files for configuration,
// the connection registry, connections, routing, and HTTP handlers to keep the
// codebase maintainable and testable as the project grows.
package server
