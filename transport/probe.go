package transport

import (
	"net"
	"syscall"
)

// Liveness is the result of a non-blocking peek on an idle connection.
type Liveness int

const (
	// WouldBlock means no data is pending and the peer has not closed the connection.
	// It is also reported when the connection cannot be probed.
	WouldBlock Liveness = iota
	// Readable means the peer sent bytes nobody asked for.
	Readable
	// Dead means end-of-stream, a socket error, or a connection closed locally.
	Dead
)

func (l Liveness) String() string {
	switch l {
	case WouldBlock:
		return "would-block"
	case Readable:
		return "readable"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// Probe peeks one byte from the socket under conn without blocking and without consuming it.
// A TLS connection is probed on its underlying socket, so a pending close_notify shows up as [Readable].
func Probe(conn net.Conn) Liveness {
	sc, ok := Unwrap(conn).(syscall.Conn)
	if !ok {
		return WouldBlock
	}

	rc, err := sc.SyscallConn()
	if err != nil {
		return Dead
	}

	return peek(rc)
}
