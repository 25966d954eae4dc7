package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainRecorder counts drain events; the backpressure tests run the queue
// by hand so no synchronization is needed.
type drainRecorder struct {
	NoopHandler
	drains int
}

func (h *drainRecorder) OnDrain(*Conn) {
	h.drains++
}

func newQueuedConn(handler EventHandler, queueSize int) (*Conn, *Registry) {
	registry := NewRegistry()
	conn := &Conn{
		send:     make(chan outboundMessage, queueSize),
		registry: registry,
		handler:  handler,
	}
	registry.conns[conn] = true
	return conn, registry
}

func TestSendBackpressure(t *testing.T) {
	handler := &drainRecorder{}
	conn, _ := newQueuedConn(handler, 1)

	require.NoError(t, conn.Send(TextMessage, []byte("first")))

	err := conn.Send(TextMessage, []byte("second"))
	require.ErrorIs(t, err, ErrBackpressure)

	// Flush the queue the way the write pump does.
	<-conn.send
	conn.maybeSignalDrain()
	assert.Equal(t, 1, handler.drains)

	// Writes may resume after the drain signal.
	require.NoError(t, conn.Send(TextMessage, []byte("third")))
}

func TestDrainFiresOncePerBackpressureEpisode(t *testing.T) {
	handler := &drainRecorder{}
	conn, _ := newQueuedConn(handler, 1)

	require.NoError(t, conn.Send(TextMessage, []byte("a")))
	require.ErrorIs(t, conn.Send(TextMessage, []byte("b")), ErrBackpressure)
	require.ErrorIs(t, conn.Send(TextMessage, []byte("c")), ErrBackpressure)

	<-conn.send
	conn.maybeSignalDrain()
	conn.maybeSignalDrain()
	assert.Equal(t, 1, handler.drains)
}

func TestFailedSendSignalsDrainOnEmptiedQueue(t *testing.T) {
	// A zero-capacity queue makes every enqueue fail while len(send) is
	// already zero, the same state left behind when the pump flushes the
	// queue between a failed enqueue and the backpressure flag store. The
	// drain signal must fire from Send itself rather than wait for the
	// next pump event.
	handler := &drainRecorder{}
	conn, _ := newQueuedConn(handler, 0)

	require.ErrorIs(t, conn.Send(TextMessage, []byte("x")), ErrBackpressure)
	assert.Equal(t, 1, handler.drains)

	require.ErrorIs(t, conn.Send(TextMessage, []byte("y")), ErrBackpressure)
	assert.Equal(t, 2, handler.drains)
}

func TestNoDrainWithoutBackpressure(t *testing.T) {
	handler := &drainRecorder{}
	conn, _ := newQueuedConn(handler, 2)

	require.NoError(t, conn.Send(TextMessage, []byte("a")))
	<-conn.send
	conn.maybeSignalDrain()

	assert.Zero(t, handler.drains)
}

func TestSendOnClosedConn(t *testing.T) {
	conn, _ := newQueuedConn(NoopHandler{}, 1)
	conn.closed = true

	assert.ErrorIs(t, conn.Send(TextMessage, []byte("x")), ErrConnClosed)
}

func TestSendOnUnregisteredConn(t *testing.T) {
	registry := NewRegistry()
	conn := &Conn{
		send:     make(chan outboundMessage, 1),
		registry: registry,
		handler:  NoopHandler{},
	}

	assert.ErrorIs(t, conn.Send(TextMessage, []byte("x")), ErrConnClosed)
}

func TestDispatchCloseDefaultsToAbnormalClosure(t *testing.T) {
	handler := newCloseRecorder()
	conn, _ := newQueuedConn(handler, 1)

	conn.dispatchClose()
	conn.dispatchClose()

	require.Len(t, handler.closes, 1)
	assert.Equal(t, 1006, handler.closes[0].code)
	assert.Equal(t, "", handler.closes[0].reason)
}

type closeRecord struct {
	code   int
	reason string
}

type closeRecorder struct {
	NoopHandler
	closes []closeRecord
}

func newCloseRecorder() *closeRecorder {
	return &closeRecorder{}
}

func (h *closeRecorder) OnClose(_ *Conn, code int, reason string) {
	h.closes = append(h.closes, closeRecord{code: code, reason: reason})
}
