// Package test holds helpers shared by tests that need real sockets.
package test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"net/netip"
	"time"

	"github.com/pkg/errors"
)

// Listen opens a TCP listener on an ephemeral loopback port.
func Listen() (net.Listener, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Wrap(err, "listening on loopback")
	}
	return l, nil
}

// AddrPort returns the address l listens on.
func AddrPort(l net.Listener) netip.AddrPort {
	return l.Addr().(*net.TCPAddr).AddrPort()
}

// Pair returns both ends of a loopback TCP connection.
func Pair() (client, server net.Conn, err error) {
	l, err := Listen()
	if err != nil {
		return nil, nil, err
	}
	defer l.Close()

	type result struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan result, 1)
	go func() {
		conn, err := l.Accept()
		accepted <- result{conn, err}
	}()

	client, err = net.Dial("tcp", l.Addr().String())
	if err != nil {
		return nil, nil, errors.Wrap(err, "dialing loopback")
	}

	r := <-accepted
	if r.err != nil {
		client.Close()
		return nil, nil, errors.Wrap(r.err, "accepting loopback")
	}

	return client, r.conn, nil
}

// NewCertificate creates a self-signed certificate valid for hosts,
// and a pool that trusts it.
func NewCertificate(hosts ...string) (tls.Certificate, *x509.CertPool, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, nil, errors.Wrap(err, "generating key")
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(now.UnixNano()),
		Subject:               pkix.Name{Organization: []string{"webfetch test"}},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, nil, errors.Wrap(err, "creating certificate")
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return tls.Certificate{}, nil, errors.Wrap(err, "parsing certificate")
	}

	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
		Leaf:        leaf,
	}

	return cert, pool, nil
}
