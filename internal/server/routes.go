// Package server wires the upgrade handler into a ServeMux via routing
// helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes. Every path is served by the upgrade handler.
func SetupRoutes(handler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", handler)
	return mux
}
