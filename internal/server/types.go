// Package server defines shared types and utility helpers that are reused
// across connection and registry logic.
package server

import (
	"errors"
	"strings"
)

var (
	// ErrBackpressure is returned by Conn.Send when the outbound queue is
	// full. The connection is marked as draining and OnDrain fires once the
	// queue has been flushed.
	ErrBackpressure = errors.New("outbound queue full, connection draining")

	// ErrConnClosed is returned by Conn.Send after the connection has been
	// unregistered.
	ErrConnClosed = errors.New("connection closed")
)

// outboundMessage is a queued write carrying its frame type so that text and
// binary payloads are preserved on the wire.
type outboundMessage struct {
	typ     MessageType
	payload []byte
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
