// Package server coordinates connection registration, lifecycle goroutines,
// and connection cleanup for the wsgate listener via the Registry type.
package server

import (
	"context"
	"log"
	"sync"
	"time"
)

// Registry tracks all live WebSocket connections and owns their pump
// goroutines. It maintains registration/unregistration and ensures
// thread-safe operations through mutex protection.
type Registry struct {
	conns      map[*Conn]bool
	register   chan *Conn
	unregister chan *Conn
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewRegistry creates and initializes a new Registry instance. The returned
// Registry is ready to manage WebSocket connections once Run is started.
func NewRegistry() *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		conns:      make(map[*Conn]bool),
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Count returns the number of currently registered connections.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.conns)
}

// Run starts the registry's main event loop, handling connection
// registration and unregistration. This method should be called in a
// separate goroutine as it runs until Shutdown.
func (r *Registry) Run() {
	defer close(r.done)

	for {
		select {
		case <-r.ctx.Done():
			r.shutdownConns()
			return

		case conn := <-r.register:
			if conn == nil {
				log.Printf("Received nil connection registration; skipping")
				continue
			}
			r.add(conn)

		case conn := <-r.unregister:
			r.remove(conn)
		}
	}
}

// add registers the connection and launches the pump goroutines. The open
// event is delivered on the reader goroutine before the first read, so it
// precedes every message event without a slow handler stalling the run loop.
func (r *Registry) add(conn *Conn) {
	r.mutex.Lock()
	conn.closed = false
	r.conns[conn] = true
	connCount := len(r.conns)
	r.mutex.Unlock()
	log.Printf("Connection registered from %s. Total connections: %d", conn.addr, connCount)

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		conn.writePump()
	}()
	go func() {
		defer r.wg.Done()
		conn.handler.OnOpen(conn)
		conn.readPump()
	}()
}

// remove unregisters the connection and closes its outbound queue.
func (r *Registry) remove(conn *Conn) {
	r.mutex.Lock()
	if _, ok := r.conns[conn]; ok {
		delete(r.conns, conn)
		conn.closed = true
		connCount := len(r.conns)
		r.mutex.Unlock()
		// Close the queue after releasing the lock; this wakes the write
		// pump so it can send the close frame and exit.
		close(conn.send)
		log.Printf("Connection unregistered from %s. Total connections: %d", conn.addr, connCount)
	} else {
		r.mutex.Unlock()
	}
}

// Register submits a freshly upgraded connection to the run loop. If the
// registry is already shutting down the connection is closed instead.
func (r *Registry) Register(conn *Conn) {
	select {
	case r.register <- conn:
	case <-r.ctx.Done():
		if conn != nil && conn.conn != nil {
			_ = conn.conn.Close()
		}
	}
}

// drop hands a connection back for unregistration. After shutdown has begun
// the run loop no longer consumes the channel, so removal happens directly.
func (r *Registry) drop(conn *Conn) {
	select {
	case r.unregister <- conn:
	case <-r.ctx.Done():
		r.remove(conn)
	}
}

// shutdownConns gracefully closes all active connections.
func (r *Registry) shutdownConns() {
	log.Println("Shutting down all connections...")

	r.mutex.Lock()
	conns := make([]*Conn, 0, len(r.conns))
	for conn := range r.conns {
		conns = append(conns, conn)
	}
	r.mutex.Unlock()

	for _, conn := range conns {
		if conn.conn != nil {
			if err := conn.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing connection from %s: %v", conn.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d connections", len(conns))
}

// Shutdown initiates graceful shutdown of the registry and waits for all
// pump goroutines to complete, or until the timeout is reached.
func (r *Registry) Shutdown(timeout time.Duration) error {
	log.Println("Initiating registry shutdown...")

	r.cancel()

	// Wait for Run() to complete
	<-r.done

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Registry shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Registry shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
