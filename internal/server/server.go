// Package server constructs and starts the wsgate HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

// CreateServer creates and configures an HTTP server for the given
// configuration and handler. It sets reasonable timeout values for
// production use.
func CreateServer(cfg Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartServer serves HTTP on the provided listener and blocks until the
// server exits.
func StartServer(server *http.Server, ln net.Listener) error {
	fmt.Println("Starting server")
	log.Printf("Listening on %s", ln.Addr())
	return server.Serve(ln)
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting
// active connections. It waits for active connections to close or until the
// timeout is reached.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	log.Println("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		return err
	}

	log.Println("HTTP server shutdown completed")
	return nil
}
