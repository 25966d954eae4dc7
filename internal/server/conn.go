// Package server manages individual WebSocket connections, handling
// read/write pumps, ordered event dispatch, and lifecycle control for each
// connection.
package server

import (
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod is the interval between pings; must be less than pongWait.
	pingPeriod = 54 * time.Second
)

// Conn represents a single upgraded WebSocket connection. It owns the
// underlying transport for the connection's lifetime and carries no
// application state beyond open/closed and draining status.
type Conn struct {
	conn           *websocket.Conn
	send           chan outboundMessage
	registry       *Registry
	handler        EventHandler
	addr           string
	maxMessageSize int64
	closed         bool // guarded by the registry mutex
	closeStarted   atomic.Bool
	backpressured  atomic.Bool
	closeOnce      sync.Once
	closeCode      int
	closeReason    string
}

// NewConn creates a Conn wrapping the provided WebSocket connection. The
// outbound queue is buffered so writes can be handed off without blocking
// the caller.
func NewConn(conn *websocket.Conn, registry *Registry, handler EventHandler, cfg Config) *Conn {
	addr := ""
	if conn != nil {
		addr = conn.RemoteAddr().String()
	}

	return &Conn{
		conn:           conn,
		send:           make(chan outboundMessage, cfg.SendQueueSize),
		registry:       registry,
		handler:        handler,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// RemoteAddr returns the peer address of the connection.
func (c *Conn) RemoteAddr() string {
	return c.addr
}

// Send enqueues a message for delivery, preserving its frame type. It never
// blocks: when the outbound queue is full the connection is marked as
// draining and ErrBackpressure is returned; OnDrain fires once the queue has
// been flushed and writes may resume.
func (c *Conn) Send(typ MessageType, payload []byte) error {
	err := c.enqueue(typ, payload)
	if errors.Is(err, ErrBackpressure) {
		// The pump may empty the queue between the failed enqueue and the
		// flag store; re-check so the drain signal is not deferred to the
		// next pump event.
		c.maybeSignalDrain()
	}
	return err
}

func (c *Conn) enqueue(typ MessageType, payload []byte) error {
	c.registry.mutex.RLock()
	defer c.registry.mutex.RUnlock()

	if c.closed || !c.registry.conns[c] {
		return ErrConnClosed
	}

	select {
	case c.send <- outboundMessage{typ: typ, payload: payload}:
		return nil
	default:
		c.backpressured.Store(true)
		return ErrBackpressure
	}
}

// Close sends a close frame to the peer and tears down the underlying
// transport. Calls after the first are no-ops, so only a single close frame
// ever reaches the peer.
func (c *Conn) Close() error {
	if !c.closeStarted.CompareAndSwap(false, true) {
		return nil
	}

	deadline := time.Now().Add(writeWait)
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, message, deadline); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing close frame to %s: %v", c.addr, err)
		}
	}
	return c.conn.Close()
}

// setupReadConnection configures read limits, deadlines, and the pong handler.
func (c *Conn) setupReadConnection() {
	if c.maxMessageSize > 0 {
		c.conn.SetReadLimit(c.maxMessageSize)
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", c.addr, err)
		}
		return nil
	})
}

// recordCloseState captures the closure code and reason for the terminal read
// error so the close event can report them.
func (c *Conn) recordCloseState(err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		c.closeCode = closeErr.Code
		c.closeReason = closeErr.Text
		log.Printf("Client %s disconnected: %v", c.addr, err)
		return
	}

	c.closeCode = websocket.CloseAbnormalClosure
	c.closeReason = ""

	if errors.Is(err, websocket.ErrReadLimit) {
		log.Printf("Message from %s exceeded maximum size of %d bytes", c.addr, c.maxMessageSize)
		return
	}
	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		log.Printf("Client %s connection closed: %v", c.addr, err)
		return
	}
	log.Printf("WebSocket read error from %s: %v", c.addr, err)
}

// dispatchClose delivers the close event exactly once.
func (c *Conn) dispatchClose() {
	c.closeOnce.Do(func() {
		code := c.closeCode
		if code == 0 {
			code = websocket.CloseAbnormalClosure
		}
		c.handler.OnClose(c, code, c.closeReason)
	})
}

func (c *Conn) readPump() {
	defer func() {
		c.registry.drop(c)
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				log.Printf("Error closing connection in readPump: %v", err)
			}
		}
		c.dispatchClose()
	}()

	c.setupReadConnection()

	for {
		typ, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.recordCloseState(err)
			break
		}
		c.handler.OnMessage(c, MessageType(typ), payload)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Conn) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		if !c.handleOutbound(message, ok) {
			return false
		}
		c.maybeSignalDrain()
		return true
	case <-ticker.C:
		if !c.handlePing() {
			return false
		}
		c.maybeSignalDrain()
		return true
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling.
func (c *Conn) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error closing connection in writePump: %v", err)
		}
	}
}

// handleOutbound writes a queued message and returns false if the connection
// should be closed.
func (c *Conn) handleOutbound(message outboundMessage, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Error setting write deadline for %s: %v", c.addr, err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(int(message.typ), message.payload); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing message to %s: %v", c.addr, err)
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close message to the client.
func (c *Conn) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing close message to %s: %v", c.addr, err)
		}
	}
	return false
}

// maybeSignalDrain fires the drain event once a previously full outbound
// queue has been flushed.
func (c *Conn) maybeSignalDrain() {
	if len(c.send) == 0 && c.backpressured.CompareAndSwap(true, false) {
		c.handler.OnDrain(c)
	}
}

// handlePing sends a ping message to keep the connection alive.
func (c *Conn) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Error setting write deadline for ping to %s: %v", c.addr, err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing ping message to %s: %v", c.addr, err)
		}
		return false
	}
	return true
}
