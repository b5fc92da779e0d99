// Package tcp dials Transmission Control Protocol (TCP) connections through the host's network stack.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9293
package tcp

import (
	"context"
	"net"
	"net/netip"

	"webfetch/transport"

	"github.com/pkg/errors"
)

type Dialer struct {
	d net.Dialer
}

var _ transport.ConnDialer = (*Dialer)(nil)

func NewDialer() *Dialer {
	return &Dialer{}
}

func (d *Dialer) Dial(ctx context.Context, addr netip.AddrPort) (net.Conn, error) {
	if !addr.IsValid() {
		return nil, errors.Errorf("invalid address: %s", addr)
	}

	conn, err := d.d.DialContext(ctx, string(transport.TCP), addr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	return conn, nil
}

// NewAddr combines ip and port into a dialable address.
// An IPv4-mapped IPv6 address is reduced to IPv4.
func NewAddr(ip netip.Addr, port uint16) netip.AddrPort {
	return netip.AddrPortFrom(ip.Unmap(), port)
}
