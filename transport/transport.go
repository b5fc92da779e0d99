package transport

import (
	"context"
	"net"
	"net/netip"
)

type Protocol string

const (
	TCP Protocol = "tcp"
)

type ConnDialer interface {
	Dial(ctx context.Context, addr netip.AddrPort) (net.Conn, error)
}

// Unwrap returns the innermost connection of a layered conn (e.g. [crypto/tls.Conn]).
func Unwrap(conn net.Conn) net.Conn {
	for {
		wrapper, ok := conn.(interface{ NetConn() net.Conn })
		if !ok {
			return conn
		}
		conn = wrapper.NetConn()
	}
}
