package client

import (
	"crypto/x509"
	"time"

	"webfetch/application/http"
)

type Options struct {
	Send    SendOptions
	Receive ReceiveOptions
	TLS     TLSOptions
	Timeout TimeoutOptions
}

type SendOptions struct {
	Encode http.EncodeOptions
}

type ReceiveOptions struct {
	Decode http.DecodeOptions

	// UseDefaultReasonPhrase replaces the received reason phrase with the registered one for the status code.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-4-9
	UseDefaultReasonPhrase bool
}

type TLSOptions struct {
	// RootCAs replaces the platform trust store when set.
	RootCAs *x509.CertPool
}

type TimeoutOptions struct {
	// IdleTimeout replaces a connection that has been idle at least this long.
	// Zero disables it.
	IdleTimeout time.Duration

	// HandshakeTimeout bounds the TLS handshake. Zero means no limit.
	HandshakeTimeout time.Duration
}
