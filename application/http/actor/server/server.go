// Package server is a scripted HTTP/1.1 server.
// Handlers return raw response bytes, so peers can be made to misbehave on purpose.
package server

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/netip"
	"sync"

	"webfetch/application/http"
	tlssession "webfetch/session/tls"

	"github.com/pkg/errors"
)

type Response struct {
	// Raw is written to the connection verbatim.
	Raw []byte

	// Close closes the connection after Raw is written.
	Close bool
}

type HandleFunc func(request *http.Request) Response

type Options struct {
	Decode http.DecodeOptions

	// Certificates turn on TLS when non-empty.
	Certificates []tls.Certificate
}

type Server struct {
	l net.Listener

	logger *slog.Logger
	opts   Options
	handle HandleFunc

	wg       sync.WaitGroup
	mu       sync.Mutex // guards the fields below
	conns    map[net.Conn]struct{}
	accepted int
	requests []http.Request
}

func New(l net.Listener, logger *slog.Logger, handle HandleFunc, opts Options) *Server {
	return &Server{
		l:      l,
		logger: logger,
		opts:   opts,
		handle: handle,
		conns:  make(map[net.Conn]struct{}),
	}
}

func (s *Server) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			con, err := s.l.Accept()
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					s.logger.Error(
						"unexpected error when accepting connection",
						"error", err.Error(),
					)
				}
				return
			}

			s.mu.Lock()
			s.accepted++
			s.conns[con] = struct{}{}
			s.mu.Unlock()

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.serve(con)
			}()
		}
	}()
}

func (s *Server) serve(con net.Conn) {
	defer s.drop(con)

	logger := s.logger.With("conn", con.RemoteAddr().String())

	var conn net.Conn = con
	if len(s.opts.Certificates) > 0 {
		tlsConn, err := tlssession.NewServer(context.Background(), con, tlssession.ServerOptions{
			Handshake: tlssession.HandshakeServerOptions{Certificates: s.opts.Certificates},
		})
		if err != nil {
			logger.Debug("tls handshake failed", "error", err.Error())
			return
		}
		conn = tlsConn

		s.mu.Lock()
		delete(s.conns, con)
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		defer s.drop(conn)
	}

	dec := http.NewRequestDecoder(conn, s.opts.Decode)
	for {
		var request http.Request
		if err := dec.Decode(&request); err != nil {
			logger.Debug("stopped reading requests", "error", err.Error())
			return
		}
		// Requests from this client carry no body.
		request.Body = nil

		s.mu.Lock()
		s.requests = append(s.requests, request)
		s.mu.Unlock()

		response := s.handle(&request)
		if _, err := conn.Write(response.Raw); err != nil {
			logger.Debug("writing response", "error", err.Error())
			return
		}

		if response.Close {
			return
		}
	}
}

func (s *Server) drop(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// AddrPort returns the address the server listens on.
func (s *Server) AddrPort() netip.AddrPort {
	return s.l.Addr().(*net.TCPAddr).AddrPort()
}

func (s *Server) Port() uint16 { return s.AddrPort().Port() }

// Accepted returns the number of connections accepted so far.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Requests returns every request received so far, in order.
func (s *Server) Requests() []http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Request(nil), s.requests...)
}

// CloseConns closes every open connection while the server keeps listening.
func (s *Server) CloseConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// Close stops the server and waits for its connections to finish.
// Closing twice is not an error.
func (s *Server) Close() error {
	err := s.l.Close()
	s.CloseConns()
	s.wg.Wait()

	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
