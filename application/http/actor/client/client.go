package client

import (
	"context"
	"log/slog"
	"net/netip"

	"webfetch/application/http/semantic"
	"webfetch/application/util/domain"
	"webfetch/application/util/uri"
	tlssession "webfetch/session/tls"
	"webfetch/transport"
	"webfetch/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// ErrConnection is returned when a connection to the origin cannot be established.
var ErrConnection = errors.New("connection failed")

// Client sends requests over at most one connection, which it owns.
// It is not safe for concurrent use.
type Client struct {
	conn *conn

	opts Options

	logger *slog.Logger
	clock  clock.Clock

	lookuper   domain.Lookuper
	connDialer transport.ConnDialer
}

func New(
	d transport.ConnDialer,
	lookuper domain.Lookuper,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	return &Client{
		connDialer: d,
		lookuper:   lookuper,
		logger:     logger,
		opts:       opts,
		clock:      clock,
	}
}

// Send requests u with GET and reads the whole response.
// Any failure drops the connection. Nothing is retried.
func (c *Client) Send(ctx context.Context, u uri.HTTP) (*semantic.Response, error) {
	conn, err := c.getConn(ctx, u)
	if err != nil {
		return nil, errors.Wrap(err, "getting connection")
	}

	response, err := conn.roundtrip(semantic.NewRequest(u))
	if err != nil {
		c.discard("roundtrip failed")
		return nil, errors.Wrap(err, "error while request-response roundtrip")
	}

	c.logger.Debug("received response",
		"url", u.String(),
		"status", response.Status.Code,
		"content_length", len(response.Body),
	)

	return response, nil
}

// Close releases the connection, if any.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.close()
	c.conn = nil

	return err
}

func (c *Client) getConn(ctx context.Context, u uri.HTTP) (*conn, error) {
	if c.conn != nil {
		reason := c.conn.staleReason(u)
		if reason == "" {
			c.logger.Debug("reusing connection", "addr", c.conn.addr)
			return c.conn, nil
		}

		c.discard(reason)
	}

	conn, err := c.dial(ctx, u)
	if err != nil {
		return nil, errors.Wrap(ErrConnection, err.Error())
	}

	c.conn = conn

	return conn, nil
}

func (c *Client) dial(ctx context.Context, u uri.HTTP) (*conn, error) {
	addr, err := c.convertToAddr(ctx, u.Host, u.Port)
	if err != nil {
		return nil, errors.Wrap(err, "converting host to addr")
	}

	con, err := c.connDialer.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	if u.Secure {
		tlsConn, err := tlssession.NewClient(ctx, con, tlssession.ClientOptions{
			HandshakeTimeout: c.opts.Timeout.HandshakeTimeout,
			Handshake: tlssession.HandshakeClientOptions{
				ServerName: u.Host,
				RootCAs:    c.opts.TLS.RootCAs,
			},
		})
		if err != nil {
			con.Close()
			return nil, err
		}
		con = tlsConn
	}

	c.logger.Debug("dialed connection", "addr", u.Addr(), "remote", addr.String(), "scheme", u.Scheme())

	return newConn(con, u, c.logger, c.clock, c.opts), nil
}

func (c *Client) convertToAddr(ctx context.Context, host string, port uint16) (netip.AddrPort, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return tcp.NewAddr(addr, port), nil
	}

	// Host is a domain name. Resolve it to the ip address.
	addrs, err := c.lookuper.LookupIP(ctx, host)
	if err != nil {
		return netip.AddrPort{}, errors.Wrapf(err, "lookup for host(%s) failed", host)
	}
	if len(addrs) == 0 {
		return netip.AddrPort{}, errors.Wrapf(domain.ErrDomainNotFound, "no address for host(%s)", host)
	}

	// Lets simply use the first address.
	return tcp.NewAddr(addrs[0], port), nil
}

func (c *Client) discard(reason string) {
	if c.conn == nil {
		return
	}

	c.logger.Debug("discarding connection", "addr", c.conn.addr, "reason", reason)

	if err := c.Close(); err != nil {
		c.logger.Debug("closing discarded connection", "error", err.Error())
	}
}
