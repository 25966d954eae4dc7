// Package server binds the TCP listener, optionally enabling OS-level port
// sharing across processes.
package server

import (
	"context"
	"fmt"
	"net"
)

// Listen binds a TCP listener on the configured address. When port reuse is
// enabled the socket is created with SO_REUSEPORT so multiple processes can
// bind the same port for load distribution; on platforms without support the
// flag is accepted and ignored.
func Listen(cfg Config) (net.Listener, error) {
	lc := net.ListenConfig{}
	if cfg.ReusePort {
		lc.Control = reusePortControl
	}

	ln, err := lc.Listen(context.Background(), "tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	return ln, nil
}
