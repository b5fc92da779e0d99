package server

import (
	"bufio"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	"webfetch/application/http"
	"webfetch/transport/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func echoTarget(request *http.Request) Response {
	body := request.Target
	return Response{
		Raw: []byte("HTTP/1.1 200 OK\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body),
	}
}

func startServer(t *testing.T, handle HandleFunc, opts Options) *Server {
	l, err := test.Listen()
	require.NoError(t, err)

	s := New(l, slog.New(slog.DiscardHandler), handle, opts)
	s.Start()
	return s
}

func TestServerRecordsRequests(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := startServer(t, echoTarget, Options{})
	defer s.Close()

	conn, err := net.Dial("tcp", s.AddrPort().String())
	require.NoError(t, err)
	defer conn.Close()

	br := bufio.NewReader(conn)
	for _, target := range []string{"/a", "/bc"} {
		_, err := conn.Write([]byte("GET " + target + " HTTP/1.1\r\nHost: x\r\n\r\n"))
		require.NoError(t, err)

		var response http.Response
		dec := http.NewResponseDecoder(br, http.DefaultDecodeOptions)
		require.NoError(t, dec.Decode(&response))
		assert.Equal(t, uint(200), response.StatusCode)

		body := make([]byte, len(target))
		_, err = io.ReadFull(br, body)
		require.NoError(t, err)
		assert.Equal(t, target, string(body))
	}

	assert.Equal(t, 1, s.Accepted())

	requests := s.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "/a", requests[0].Target)
	assert.Equal(t, "/bc", requests[1].Target)
	assert.Equal(t, []http.Field{{Name: []byte("Host"), Value: []byte("x")}}, requests[1].Headers)
}

func TestServerClosesAfterResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := startServer(t, func(*http.Request) Response {
		return Response{Raw: []byte("HTTP/1.1 204 No Content\r\n\r\n"), Close: true}
	}, Options{})
	defer s.Close()

	conn, err := net.Dial("tcp", s.AddrPort().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	b, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 204 No Content\r\n\r\n", string(b))
}

func TestServerTLS(t *testing.T) {
	defer goleak.VerifyNone(t)

	cert, pool, err := test.NewCertificate("localhost")
	require.NoError(t, err)

	s := startServer(t, echoTarget, Options{Certificates: []tls.Certificate{cert}})
	defer s.Close()

	conn, err := tls.Dial("tcp", s.AddrPort().String(), &tls.Config{ServerName: "localhost", RootCAs: pool})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /tls HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	var response http.Response
	br := bufio.NewReader(conn)
	require.NoError(t, http.NewResponseDecoder(br, http.DefaultDecodeOptions).Decode(&response))
	assert.Equal(t, uint(200), response.StatusCode)
}
