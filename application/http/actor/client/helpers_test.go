package client

import (
	"crypto/tls"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"webfetch/application/http"
	"webfetch/application/http/actor/server"
	"webfetch/transport/test"

	"github.com/stretchr/testify/require"
)

// scriptedServer lets a test swap the handler while the server runs.
type scriptedServer struct {
	*server.Server

	mu     sync.Mutex
	handle server.HandleFunc
}

func startScripted(t require.TestingT, certs ...tls.Certificate) *scriptedServer {
	l, err := test.Listen()
	require.NoError(t, err)

	s := &scriptedServer{handle: func(*http.Request) server.Response { return ok("") }}
	s.Server = server.New(l, slog.New(slog.DiscardHandler), func(r *http.Request) server.Response {
		s.mu.Lock()
		handle := s.handle
		s.mu.Unlock()
		return handle(r)
	}, server.Options{Certificates: certs})
	s.Start()

	return s
}

func (s *scriptedServer) respond(handle server.HandleFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = handle
}

func (s *scriptedServer) targets() []string {
	var targets []string
	for _, r := range s.Requests() {
		targets = append(targets, r.Target)
	}
	return targets
}

func rawResponse(statusLine, body string, fields ...string) []byte {
	b := new(strings.Builder)
	b.WriteString(statusLine + "\r\n")
	for _, f := range fields {
		b.WriteString(f + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func ok(body string) server.Response {
	return server.Response{
		Raw: rawResponse("HTTP/1.1 200 OK", body, "Content-Length: "+strconv.Itoa(len(body))),
	}
}

func redirectTo(location string) server.Response {
	return server.Response{
		Raw: rawResponse("HTTP/1.1 301 Moved Permanently", "", "Location: "+location, "Content-Length: 0"),
	}
}

func always(response server.Response) server.HandleFunc {
	return func(*http.Request) server.Response { return response }
}
