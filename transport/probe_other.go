//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package transport

import "syscall"

// No peek primitive here. The connection is assumed alive.
func peek(rc syscall.RawConn) Liveness { return WouldBlock }
