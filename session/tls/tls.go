// Package tls sets up Transport Layer Security (TLS) sessions over established connections.
//
// Reference:
// - https://datatracker.ietf.org/doc/html/rfc8446
// - https://datatracker.ietf.org/doc/html/rfc6066
package tls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"

	"github.com/pkg/errors"
)

var ErrHandshake = errors.New("tls handshake failed")

type HandshakeClientOptions struct {
	// ServerName is sent as SNI and verified against the peer certificate.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc6066#section-3
	ServerName string

	// RootCAs replaces the platform trust store when set.
	RootCAs *x509.CertPool
}

type ClientOptions struct {
	// HandshakeTimeout bounds the handshake. Zero means no limit.
	HandshakeTimeout time.Duration

	Handshake HandshakeClientOptions
}

// NewClient runs a client handshake on conn.
// conn is left open on failure. The caller owns it.
func NewClient(ctx context.Context, conn net.Conn, opts ClientOptions) (*tls.Conn, error) {
	if opts.Handshake.ServerName == "" {
		return nil, errors.Wrap(ErrHandshake, "server name is required")
	}

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName: opts.Handshake.ServerName,
		RootCAs:    opts.Handshake.RootCAs,
		MinVersion: tls.VersionTLS12,
	})

	if err := handshake(ctx, tlsConn, opts.HandshakeTimeout); err != nil {
		return nil, err
	}

	return tlsConn, nil
}

type HandshakeServerOptions struct {
	Certificates []tls.Certificate
}

type ServerOptions struct {
	HandshakeTimeout time.Duration

	Handshake HandshakeServerOptions
}

// NewServer runs a server handshake on conn.
func NewServer(ctx context.Context, conn net.Conn, opts ServerOptions) (*tls.Conn, error) {
	tlsConn := tls.Server(conn, &tls.Config{
		Certificates: opts.Handshake.Certificates,
		MinVersion:   tls.VersionTLS12,
	})

	if err := handshake(ctx, tlsConn, opts.HandshakeTimeout); err != nil {
		return nil, err
	}

	return tlsConn, nil
}

func handshake(ctx context.Context, conn *tls.Conn, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := conn.HandshakeContext(ctx); err != nil {
		return errors.Wrap(ErrHandshake, err.Error())
	}

	return nil
}
