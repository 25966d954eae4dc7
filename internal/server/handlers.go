// Package server exposes the HTTP handler that upgrades incoming requests to
// WebSocket connections.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// UpgradeHandler treats every incoming HTTP request as a WebSocket upgrade
// attempt. Successful upgrades hand the connection to the registry; failed
// upgrades receive a fixed 500 response.
type UpgradeHandler struct {
	cfg      Config
	upgrader websocket.Upgrader
	registry *Registry
	handler  EventHandler
}

// NewUpgradeHandler creates an UpgradeHandler dispatching lifecycle events to
// the provided EventHandler. A nil handler defaults to NoopHandler.
func NewUpgradeHandler(cfg Config, registry *Registry, handler EventHandler) *UpgradeHandler {
	if handler == nil {
		handler = NoopHandler{}
	}

	return &UpgradeHandler{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Every request is upgrade-eligible regardless of origin.
			CheckOrigin: func(*http.Request) bool { return true },
			Error:       upgradeError,
		},
		registry: registry,
		handler:  handler,
	}
}

// upgradeError answers every failed upgrade with a fixed 500 response.
func upgradeError(w http.ResponseWriter, _ *http.Request, _ int, _ error) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusInternalServerError)
	if _, err := fmt.Fprint(w, "Internal Server Error"); err != nil {
		log.Printf("Error writing upgrade failure response: %v", err)
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it.
// Once the upgrade succeeds, ownership of the connection transfers to the
// registry and no further HTTP response is written.
func (h *UpgradeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fmt.Println("Request received")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}

	h.registry.Register(NewConn(conn, h.registry, h.handler, h.cfg))
}
