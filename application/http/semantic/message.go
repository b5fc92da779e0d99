package semantic

import (
	"bytes"
	"io"
	"strconv"

	"webfetch/application/http"

	"github.com/pkg/errors"
)

type Message struct {
	Version http.Version

	Headers Headers

	ContentLength *uint

	// Body is nil when the message declared no content length.
	Body []byte
}

func createMessage(ver http.Version, fields []http.Field, body io.Reader) (msg Message, err error) {
	msg.Version = ver
	msg.Headers = HeadersFrom(fields)

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.1
	if v, ok := msg.Headers.Get("Transfer-Encoding"); ok {
		return Message{}, errors.Wrapf(ErrUnsupportedFeature, "transfer-encoding %q", v)
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.4
	if v, ok := msg.Headers.Get("Content-Encoding"); ok {
		return Message{}, errors.Wrapf(ErrUnsupportedFeature, "content-encoding %q", v)
	}

	msg.ContentLength, err = extractContentLength(msg.Headers)
	if err != nil {
		return Message{}, errors.Wrap(err, "extracting content length")
	}

	if msg.ContentLength != nil {
		msg.Body, err = readBody(body, *msg.ContentLength)
		if err != nil {
			return Message{}, errors.Wrap(err, "reading body")
		}
	}

	return msg, nil
}

// readBody reads exactly n bytes from r and nothing past them.
// The buffer grows with what arrives, not with what n declares.
func readBody(r io.Reader, n uint) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, min(n, 512)))
	if _, err := io.CopyN(buf, r, int64(n)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(http.ErrProtocol, "body shorter than content length %d", n)
		}
		return nil, err
	}

	return buf.Bytes(), nil
}

// extractContentLength extracts content length from headers.
func extractContentLength(h Headers) (*uint, error) {
	v, ok := h.Get("Content-Length")
	if !ok {
		return nil, nil
	}

	// Any value greater than or equal to 0 is valid.
	// But let's restrict it to 32bit uint, since the body is held in memory.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6-10
	len64, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil, errors.Wrapf(http.ErrProtocol, "invalid content-length %q", v)
	}

	l := uint(len64)
	return &l, nil
}
