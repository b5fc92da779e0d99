package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net/netip"
	"testing"
	"time"

	"webfetch/application/http"
	"webfetch/application/http/actor/server"
	"webfetch/application/http/semantic"
	"webfetch/application/http/semantic/status"
	"webfetch/application/util/domain"
	"webfetch/application/util/uri"
	"webfetch/transport"
	"webfetch/transport/tcp"
	"webfetch/transport/test"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

var loopback = netip.MustParseAddr("127.0.0.1")

type ClientTestSuite struct {
	suite.Suite

	server   *scriptedServer
	lookuper domain.Lookuper
	logger   *slog.Logger
	clock    *clock.Mock

	client *Client
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.logger = slog.New(slog.DiscardHandler)
	s.lookuper = domain.NewMapLookuper(map[string][]netip.Addr{
		"example.test": {loopback},
	})

	s.server = startScripted(s.T())
	s.client = s.newClient(Options{})
}

func (s *ClientTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.client.Close())
	s.NoError(s.server.Close())
}

func (s *ClientTestSuite) newClient(opts Options) *Client {
	return New(tcp.NewDialer(), s.lookuper, s.logger, s.clock, opts)
}

func (s *ClientTestSuite) url(path string) uri.HTTP {
	return uri.HTTP{Host: "example.test", Port: s.server.Port(), Path: path}
}

// waitPeerGone waits until the client sees the server side of its connection go away.
func (s *ClientTestSuite) waitPeerGone() {
	s.Require().NotNil(s.client.conn)
	s.Eventually(func() bool {
		return transport.Probe(s.client.conn.con) != transport.WouldBlock
	}, time.Second, 10*time.Millisecond)
}

func (s *ClientTestSuite) TestSend() {
	s.server.respond(always(ok("hello")))

	response, err := s.client.Send(context.Background(), s.url("/index.html"))
	s.Require().NoError(err)

	s.Equal(status.OK, response.Status)
	s.Equal([]byte("hello"), response.Body)

	requests := s.server.Requests()
	s.Require().Len(requests, 1)
	s.Equal(http.RequestLine{Method: "GET", Target: "/index.html", Version: http.Version{1, 1}}, requests[0].RequestLine)
	s.Equal([]http.Field{
		{Name: []byte("Host"), Value: []byte("example.test")},
		{Name: []byte("Connection"), Value: []byte("keep-alive")},
		{Name: []byte("User-Agent"), Value: []byte(semantic.UserAgent)},
	}, requests[0].Headers)
}

func (s *ClientTestSuite) TestIPLiteralHost() {
	s.server.respond(always(ok("hi")))

	u := s.url("/")
	u.Host = "127.0.0.1"

	response, err := s.client.Send(context.Background(), u)
	s.Require().NoError(err)
	s.Equal([]byte("hi"), response.Body)
}

func (s *ClientTestSuite) TestKeepAlive() {
	s.server.respond(always(ok("hello")))

	for range 3 {
		_, err := s.client.Send(context.Background(), s.url("/"))
		s.Require().NoError(err)
	}

	s.Equal(1, s.server.Accepted())
	s.Len(s.server.Requests(), 3)
}

func (s *ClientTestSuite) TestTrailingBytesNotRead() {
	s.server.respond(always(server.Response{
		Raw: rawResponse("HTTP/1.1 200 OK", "helloEXTRA", "Content-Length: 5"),
	}))

	response, err := s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)
	s.Equal([]byte("hello"), response.Body)

	// Leftover bytes make the connection unusable.
	s.server.respond(always(ok("again")))

	response, err = s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)
	s.Equal([]byte("again"), response.Body)
	s.Equal(2, s.server.Accepted())
}

func (s *ClientTestSuite) TestPeerClosed() {
	s.server.respond(always(ok("hello")))

	_, err := s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)

	s.server.CloseConns()
	s.waitPeerGone()

	_, err = s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)

	s.Equal(2, s.server.Accepted())
}

func (s *ClientTestSuite) TestServerClosesAfterResponse() {
	response := ok("bye")
	response.Close = true
	s.server.respond(always(response))

	_, err := s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)
	s.waitPeerGone()

	_, err = s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)

	s.Equal(2, s.server.Accepted())
}

func (s *ClientTestSuite) TestIdleTimeout() {
	s.client = s.newClient(Options{Timeout: TimeoutOptions{IdleTimeout: 10 * time.Second}})
	s.server.respond(always(ok("hello")))

	_, err := s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)

	s.clock.Add(5 * time.Second)

	_, err = s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)
	s.Equal(1, s.server.Accepted())

	s.clock.Add(10 * time.Second)

	_, err = s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)
	s.Equal(2, s.server.Accepted())
}

func (s *ClientTestSuite) TestDifferentOrigin() {
	other := startScripted(s.T())
	defer other.Close()

	s.server.respond(always(ok("a")))
	other.respond(always(ok("b")))

	otherURL := s.url("/")
	otherURL.Port = other.Port()

	for _, u := range []uri.HTTP{s.url("/"), otherURL, s.url("/")} {
		_, err := s.client.Send(context.Background(), u)
		s.Require().NoError(err)
	}

	s.Equal(2, s.server.Accepted())
	s.Equal(1, other.Accepted())
}

func (s *ClientTestSuite) TestReasonPhrase() {
	s.server.respond(always(server.Response{
		Raw: rawResponse("HTTP/1.1 200 Fine", "", "Content-Length: 0"),
	}))

	response, err := s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)
	s.Equal("Fine", response.Status.ReasonPhrase)

	s.Require().NoError(s.client.Close())
	s.client = s.newClient(Options{Receive: ReceiveOptions{UseDefaultReasonPhrase: true}})

	response, err = s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)
	s.Equal("OK", response.Status.ReasonPhrase)
}

func (s *ClientTestSuite) TestNoContentLength() {
	s.server.respond(always(server.Response{
		Raw: rawResponse("HTTP/1.1 204 No Content", ""),
	}))

	response, err := s.client.Send(context.Background(), s.url("/"))
	s.Require().NoError(err)

	s.Equal(status.NoContent, response.Status)
	s.Nil(response.Body)
}

func (s *ClientTestSuite) TestResponseErrors() {
	testcases := []struct {
		desc     string
		response server.Response
		wantErr  error
	}{
		{
			desc: "chunked transfer coding",
			response: server.Response{
				Raw: rawResponse("HTTP/1.1 200 OK", "5\r\nhello\r\n0\r\n\r\n", "Transfer-Encoding: chunked"),
			},
			wantErr: semantic.ErrUnsupportedFeature,
		},
		{
			desc: "compressed content",
			response: server.Response{
				Raw: rawResponse("HTTP/1.1 200 OK", "abc", "Content-Encoding: gzip", "Content-Length: 3"),
			},
			wantErr: semantic.ErrUnsupportedFeature,
		},
		{
			desc:     "malformed status line",
			response: server.Response{Raw: rawResponse("HTTP/1.1 2000 OK", "")},
			wantErr:  http.ErrMalformedStatusLine,
		},
		{
			desc:     "malformed field line",
			response: server.Response{Raw: rawResponse("HTTP/1.1 200 OK", "", "Content-Length 0")},
			wantErr:  http.ErrMalformedFieldLine,
		},
		{
			desc:     "missing CR",
			response: server.Response{Raw: []byte("HTTP/1.1 200 OK\nContent-Length: 0\n\n")},
			wantErr:  http.ErrProtocol,
		},
		{
			desc: "short body",
			response: server.Response{
				Raw:   rawResponse("HTTP/1.1 200 OK", "hello", "Content-Length: 10"),
				Close: true,
			},
			wantErr: http.ErrProtocol,
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			s.server.respond(always(tc.response))

			_, err := s.client.Send(context.Background(), s.url("/"))
			s.ErrorIs(err, tc.wantErr)

			// The connection is dropped.
			s.Nil(s.client.conn)
		})
	}
}

func (s *ClientTestSuite) TestRefused() {
	l, err := test.Listen()
	s.Require().NoError(err)
	port := test.AddrPort(l).Port()
	s.Require().NoError(l.Close())

	u := s.url("/")
	u.Port = port

	_, err = s.client.Send(context.Background(), u)
	s.ErrorIs(err, ErrConnection)
}

// emptyLookuper answers every lookup with no addresses and no error.
type emptyLookuper struct{}

func (emptyLookuper) LookupIP(context.Context, string) ([]netip.Addr, error) { return nil, nil }

func (s *ClientTestSuite) TestUnknownHost() {
	testcases := []struct {
		desc     string
		lookuper domain.Lookuper
	}{
		{desc: "not in table", lookuper: s.lookuper},
		{desc: "empty entry", lookuper: domain.NewMapLookuper(map[string][]netip.Addr{"nowhere.test": {}})},
		{desc: "empty answer", lookuper: emptyLookuper{}},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			c := New(tcp.NewDialer(), tc.lookuper, s.logger, s.clock, Options{})
			defer c.Close()

			u := s.url("/")
			u.Host = "nowhere.test"

			_, err := c.Send(context.Background(), u)
			s.ErrorIs(err, ErrConnection)
			s.ErrorContains(err, domain.ErrDomainNotFound.Error())
		})
	}
}

type TLSClientTestSuite struct {
	suite.Suite

	cert tls.Certificate
	pool *x509.CertPool

	server *scriptedServer
	client *Client
}

func TestTLSClientTestSuite(t *testing.T) {
	suite.Run(t, new(TLSClientTestSuite))
}

func (s *TLSClientTestSuite) SetupSuite() {
	var err error
	s.cert, s.pool, err = test.NewCertificate("example.test")
	s.Require().NoError(err)
}

func (s *TLSClientTestSuite) SetupTest() {
	s.server = startScripted(s.T(), s.cert)
	s.server.respond(always(ok("secret")))
	s.client = s.newClient(s.pool)
}

func (s *TLSClientTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.client.Close())
	s.NoError(s.server.Close())
}

func (s *TLSClientTestSuite) newClient(pool *x509.CertPool) *Client {
	lookuper := domain.NewMapLookuper(map[string][]netip.Addr{"example.test": {loopback}})
	return New(
		tcp.NewDialer(), lookuper, slog.New(slog.DiscardHandler), clock.NewMock(),
		Options{TLS: TLSOptions{RootCAs: pool}},
	)
}

func (s *TLSClientTestSuite) url() uri.HTTP {
	return uri.HTTP{Secure: true, Host: "example.test", Port: s.server.Port(), Path: "/"}
}

func (s *TLSClientTestSuite) TestSend() {
	for range 2 {
		response, err := s.client.Send(context.Background(), s.url())
		s.Require().NoError(err)
		s.Equal([]byte("secret"), response.Body)
	}

	s.Equal(1, s.server.Accepted())
}

func (s *TLSClientTestSuite) TestCloseNotify() {
	_, err := s.client.Send(context.Background(), s.url())
	s.Require().NoError(err)

	s.server.CloseConns()
	s.Eventually(func() bool {
		return transport.Probe(s.client.conn.con) != transport.WouldBlock
	}, time.Second, 10*time.Millisecond)

	_, err = s.client.Send(context.Background(), s.url())
	s.Require().NoError(err)

	s.Equal(2, s.server.Accepted())
}

func (s *TLSClientTestSuite) TestUntrusted() {
	s.client = s.newClient(nil)

	_, err := s.client.Send(context.Background(), s.url())
	s.ErrorIs(err, ErrConnection)
	s.Nil(s.client.conn)
}

func (s *TLSClientTestSuite) TestPlainToTLSPort() {
	u := s.url()
	u.Secure = false

	// The server waits for a ClientHello and drops the plain request.
	_, err := s.client.Send(context.Background(), u)
	s.Error(err)
}
