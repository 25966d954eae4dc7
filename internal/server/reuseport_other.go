//go:build !linux

package server

import "syscall"

// reusePortControl is a no-op where SO_REUSEPORT is unavailable.
func reusePortControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
