// Package server defines the lifecycle event contract dispatched to
// applications built on the listener.
package server

import "github.com/gorilla/websocket"

// MessageType identifies whether a WebSocket message carries text or binary
// data. The values match the underlying protocol opcodes.
type MessageType int

const (
	// TextMessage denotes a UTF-8 text message.
	TextMessage MessageType = websocket.TextMessage

	// BinaryMessage denotes a binary message.
	BinaryMessage MessageType = websocket.BinaryMessage
)

// EventHandler receives per-connection lifecycle events. For a given
// connection, OnOpen is invoked exactly once before any OnMessage, OnMessage
// is invoked once per inbound frame in arrival order, and OnClose is invoked
// exactly once after the final OnMessage. OnDrain fires when a previously
// full outbound queue has been flushed and writes may resume. Events from
// different connections may interleave arbitrarily.
type EventHandler interface {
	OnOpen(c *Conn)
	OnMessage(c *Conn, typ MessageType, payload []byte)
	OnClose(c *Conn, code int, reason string)
	OnDrain(c *Conn)
}

// NoopHandler is an EventHandler that ignores every event. It is the default
// handler and a convenient embed for implementations that only care about a
// subset of events.
type NoopHandler struct{}

// OnOpen implements EventHandler.
func (NoopHandler) OnOpen(*Conn) {}

// OnMessage implements EventHandler.
func (NoopHandler) OnMessage(*Conn, MessageType, []byte) {}

// OnClose implements EventHandler.
func (NoopHandler) OnClose(*Conn, int, string) {}

// OnDrain implements EventHandler.
func (NoopHandler) OnDrain(*Conn) {}
