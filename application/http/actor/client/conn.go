package client

import (
	"log/slog"
	"net"
	"time"

	"webfetch/application/http"
	"webfetch/application/http/semantic"
	"webfetch/application/http/semantic/status"
	"webfetch/application/util/uri"
	"webfetch/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// conn is a single keep-alive connection to one origin.
// It serves one request at a time.
type conn struct {
	con net.Conn

	scheme string
	addr   string // host:port it was dialed for.

	enc *http.RequestEncoder
	dec *http.ResponseDecoder

	logger *slog.Logger
	clock  clock.Clock
	opts   Options

	idleAt time.Time
}

func newConn(con net.Conn, u uri.HTTP, logger *slog.Logger, clock clock.Clock, opts Options) *conn {
	return &conn{
		con:    con,
		scheme: u.Scheme(),
		addr:   u.Addr(),
		enc:    http.NewRequestEncoder(con, opts.Send.Encode),
		dec:    http.NewResponseDecoder(con, opts.Receive.Decode),
		logger: logger,
		clock:  clock,
		opts:   opts,
	}
}

func (c *conn) roundtrip(request http.Request) (*semantic.Response, error) {
	c.idleAt = time.Time{} // To mark it as non-idle.

	if err := c.enc.Encode(request); err != nil {
		return nil, errors.Wrap(err, "writing request")
	}

	response, err := c.readResponse()
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}

	c.idleAt = c.clock.Now()

	return response, nil
}

func (c *conn) readResponse() (*semantic.Response, error) {
	var raw http.Response
	if err := c.dec.Decode(&raw); err != nil {
		return nil, err
	}

	response, err := semantic.ResponseFrom(&raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a semantic response")
	}

	if c.opts.Receive.UseDefaultReasonPhrase {
		// Overwrite the reason phrase with default one.
		if status, ok := status.FromCode(response.Status.Code); ok {
			response.Status = status
		}
	}

	return response, nil
}

// staleReason tells why the conn cannot serve a request for u.
// An empty string means it can.
func (c *conn) staleReason(u uri.HTTP) string {
	switch {
	case c.scheme != u.Scheme() || c.addr != u.Addr():
		return "different origin"
	case c.opts.Timeout.IdleTimeout > 0 && c.idleTimeoutExceeded(c.opts.Timeout.IdleTimeout):
		return "idle timeout exceeded"
	case c.dec.Buffered() > 0:
		// Bytes after the last response cannot belong to the next one.
		return "unread bytes buffered"
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-9.3.1
	if liveness := transport.Probe(c.con); liveness != transport.WouldBlock {
		return "peer is " + liveness.String()
	}

	return ""
}

func (c *conn) idleTimeoutExceeded(timeout time.Duration) bool {
	if c.idleAt.IsZero() {
		return false
	}

	return c.clock.Since(c.idleAt) >= timeout
}

// close closes the socket without a graceful shutdown.
func (c *conn) close() error {
	if err := transport.Unwrap(c.con).Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Wrap(err, "closing connection")
	}
	return nil
}
