package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeFile  = "file"
	SchemeData  = "data"

	viewSourcePrefix = "view-source:"
	schemeSep        = "://"
)

var ErrMalformedURL = errors.New("malformed url")

// URL is one of [HTTP], [File] or [Data].
type URL interface {
	Scheme() string
	// ViewSource reports whether the url was prefixed with "view-source:".
	ViewSource() bool
	String() string

	isURL()
}

// HTTP locates a resource served over http or https.
type HTTP struct {
	Secure bool
	Host   string
	Port   uint16
	Path   string

	viewSource bool
}

func (u HTTP) Scheme() string {
	if u.Secure {
		return SchemeHTTPS
	}
	return SchemeHTTP
}

func (u HTTP) ViewSource() bool { return u.viewSource }

// Addr returns host:port of the origin server.
func (u HTTP) Addr() string {
	return u.Host + ":" + strconv.FormatUint(uint64(u.Port), 10)
}

func (u HTTP) String() string {
	b := new(strings.Builder)
	if u.viewSource {
		b.WriteString(viewSourcePrefix)
	}
	b.WriteString(u.Scheme())
	b.WriteString(schemeSep)
	b.WriteString(u.Host)
	if u.Port != DefaultPort(u.Scheme()) {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(u.Port), 10))
	}
	b.WriteString(u.Path)
	return b.String()
}

// File locates a file on the local filesystem.
type File struct {
	Path string

	viewSource bool
}

func (u File) Scheme() string   { return SchemeFile }
func (u File) ViewSource() bool { return u.viewSource }

func (u File) String() string {
	return sourcePrefix(u.viewSource) + SchemeFile + schemeSep + u.Path
}

// Data carries its content inline, formatted as "mimeType,content".
type Data struct {
	Payload string

	viewSource bool
}

func (u Data) Scheme() string   { return SchemeData }
func (u Data) ViewSource() bool { return u.viewSource }

func (u Data) String() string {
	return sourcePrefix(u.viewSource) + SchemeData + ":" + u.Payload
}

func (HTTP) isURL() {}
func (File) isURL() {}
func (Data) isURL() {}

func sourcePrefix(viewSource bool) string {
	if viewSource {
		return viewSourcePrefix
	}
	return ""
}

// DefaultPort returns the well-known port of http and https, or 0.
func DefaultPort(scheme string) uint16 {
	switch scheme {
	case SchemeHTTP:
		return 80
	case SchemeHTTPS:
		return 443
	}
	return 0
}

// HasScheme reports whether s starts with "scheme://".
func HasScheme(s string) bool {
	scheme, _, found := strings.Cut(s, schemeSep)
	return found && isValidScheme(scheme)
}

func Parse(raw string) (URL, error) {
	rest, viewSource := strings.CutPrefix(raw, viewSourcePrefix)

	// data urls are usually written without the authority slashes.
	if payload, found := strings.CutPrefix(rest, SchemeData+":"); found {
		payload = strings.TrimPrefix(payload, "//")
		return Data{Payload: payload, viewSource: viewSource}, nil
	}

	scheme, rest, found := strings.Cut(rest, schemeSep)
	if !found {
		return nil, errors.Wrapf(ErrMalformedURL, "scheme separator not found: %q", raw)
	}

	switch scheme {
	case SchemeFile:
		return File{Path: rest, viewSource: viewSource}, nil
	case SchemeHTTP, SchemeHTTPS:
		u, err := parseHTTP(scheme, rest)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %q", raw)
		}
		u.viewSource = viewSource
		return u, nil
	}

	return nil, errors.Wrapf(ErrMalformedURL, "unsupported scheme %q", scheme)
}

func parseHTTP(scheme, rest string) (HTTP, error) {
	u := HTTP{
		Secure: scheme == SchemeHTTPS,
		Port:   DefaultPort(scheme),
	}

	if !strings.Contains(rest, "/") {
		rest += "/"
	}

	hostPort, path, _ := strings.Cut(rest, "/")
	u.Path = "/" + path

	host, portPart, hasPort := strings.Cut(hostPort, ":")
	if host == "" {
		return HTTP{}, errors.Wrap(ErrMalformedURL, "host is empty")
	}
	u.Host = host

	if hasPort {
		port, err := parsePort(portPart)
		if err != nil {
			return HTTP{}, errors.Wrap(err, "parsing port")
		}
		u.Port = port
	}

	return u, nil
}

// This is not the same rule as RFC. Port is limited to 16 bits.
func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedURL, "port is not valid: %q", s)
	}
	return uint16(n), nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func isValidScheme(s string) bool {
	if len(s) == 0 || !isAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if isAlpha(c) || isDigit(c) || c == '+' || c == '-' || c == '.' {
			continue
		}
		return false
	}
	return true
}

func isAlpha(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
