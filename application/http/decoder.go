package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies wheter a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// MaxFieldLineLength sets the limit of field line length on headers.
	// Zero means no limit.
	MaxFieldLineLength uint

	// MaxRequestLineLength sets the limit of request line length.
	// Recommended: >= 8000
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-5
	MaxRequestLineLength uint

	// MaxStatusLineLength sets the limit of status line length.
	// Zero means no limit.
	MaxStatusLineLength uint
}

var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:          false,
	MaxFieldLineLength:   0,
	MaxRequestLineLength: 0,
	MaxStatusLineLength:  0,
}

type MessageDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

var (
	errLineTooLong       = errors.New("line length exceeds limit")
	ErrMissingCRBeforeLF = errors.Wrap(ErrProtocol, "missing CR before LF")
)

// Buffered returns the number of bytes read from the stream but not consumed yet.
func (md *MessageDecoder) Buffered() int { return md.br.Buffered() }

// readLine reads a line, LF included, of at most limit bytes.
// The limit is checked per buffered chunk, so an unterminated line stops being read once it passes the limit.
func (md *MessageDecoder) readLine(limit uint) ([]byte, error) {
	var b []byte
	for {
		chunk, err := md.br.ReadSlice(LF)
		b = append(b, chunk...)

		if limit > 0 && uint(len(b)) > limit {
			return nil, errLineTooLong
		}

		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == io.EOF && len(b) > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	b = b[:len(b)-1] // Remove LF.

	if len(b) > 0 && b[len(b)-1] == CR {
		b = b[:len(b)-1] // Remove CR.
	} else if !md.opts.AllowSoleLF {
		return nil, ErrMissingCRBeforeLF
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-4
	b = bytes.ReplaceAll(b, []byte{CR}, []byte{SP})

	return b, nil
}

var (
	ErrFieldLineTooLong   = errors.Wrap(ErrProtocol, "field line length exceeds limit")
	ErrMalformedFieldLine = errors.Wrap(ErrProtocol, "field line is malformed")
)

func (md *MessageDecoder) decodeHeaders(headers *[]Field) error {
	tmpHeaders := make([]Field, 0)
	for {
		fieldLine, err := md.readLine(md.opts.MaxFieldLineLength)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return ErrFieldLineTooLong
			}
			return errors.Wrap(err, "reading line")
		}

		if len(fieldLine) == 0 {
			// An empty line. This means that there are no more headers.
			break
		}

		field, err := ParseField(fieldLine)
		if err != nil {
			return errors.Wrap(ErrMalformedFieldLine, err.Error())
		}

		tmpHeaders = append(tmpHeaders, field)
	}

	*headers = tmpHeaders

	return nil
}

var (
	ErrRequestLineTooLong   = errors.Wrap(ErrProtocol, "request line length exceeds limit")
	ErrMalformedRequestLine = errors.Wrap(ErrProtocol, "request line is malformed")
)

type RequestDecoder struct{ MessageDecoder }

func NewRequestDecoder(r io.Reader, opts DecodeOptions) *RequestDecoder {
	return &RequestDecoder{
		MessageDecoder{br: bufio.NewReader(r), opts: opts},
	}
}

// r MUST be a non-nil pointer
func (rd *RequestDecoder) Decode(r *Request) error {
	if err := rd.decodeRequestLine(&r.RequestLine); err != nil {
		return errors.Wrap(err, "parsing request line")
	}

	if err := rd.decodeHeaders(&r.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	r.Body = rd.br

	return nil
}

func (rd *RequestDecoder) decodeRequestLine(reqLine *RequestLine) error {
	var line []byte
	for {
		b, err := rd.readLine(rd.opts.MaxRequestLineLength)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return ErrRequestLineTooLong
			}
			return errors.Wrap(err, "reading line")
		}

		// An empty line can be received before message.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
		if len(b) > 0 {
			line = b
			break
		}
	}

	parsed, err := parseRequestLine(line)
	if err != nil {
		return errors.Wrap(ErrMalformedRequestLine, err.Error())
	}

	*reqLine = parsed

	return nil
}

func parseRequestLine(line []byte) (RequestLine, error) {
	parts := bytes.Split(line, []byte{SP})
	if len(parts) != 3 {
		return RequestLine{}, errors.New("request line is malformed")
	}

	method := string(parts[0])
	if !isValidToken(method) {
		return RequestLine{}, errors.New("method is not a valid token")
	}

	target := string(parts[1])
	if len(target) == 0 {
		return RequestLine{}, errors.New("request target should not be empty")
	}

	ver, err := ParseVersion(parts[2])
	if err != nil {
		return RequestLine{}, errors.Wrap(err, "parsing version")
	}

	return RequestLine{Method: method, Target: target, Version: ver}, nil
}

var (
	ErrStatusLineTooLong   = errors.Wrap(ErrProtocol, "status line length exceeds limit")
	ErrMalformedStatusLine = errors.Wrap(ErrProtocol, "status line is malformed")
)

type ResponseDecoder struct{ MessageDecoder }

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{
		MessageDecoder{br: bufio.NewReader(r), opts: opts},
	}
}

// Decode reads the status line and the header section.
// r.Body is left positioned at the first byte of the body.
//
// r MUST be a non-nil pointer
func (rd *ResponseDecoder) Decode(r *Response) error {
	if err := rd.decodeStatusLine(&r.StatusLine); err != nil {
		return errors.Wrap(err, "parsing status line")
	}

	if err := rd.decodeHeaders(&r.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	r.Body = rd.br

	return nil
}

func (rd *ResponseDecoder) decodeStatusLine(statLine *StatusLine) error {
	var line []byte
	for {
		b, err := rd.readLine(rd.opts.MaxStatusLineLength)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return ErrStatusLineTooLong
			}
			return errors.Wrap(err, "reading line")
		}

		// An empty line can be received before message.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
		if len(b) > 0 {
			line = b
			break
		}
	}

	parsed, err := parseStatusLine(line)
	if err != nil {
		return errors.Wrap(ErrMalformedStatusLine, err.Error())
	}

	*statLine = parsed

	return nil
}

// parseStatusLine splits line on its first two spaces.
func parseStatusLine(line []byte) (StatusLine, error) {
	parts := bytes.SplitN(line, []byte{SP}, 3)
	if len(parts) < 3 {
		return StatusLine{}, errors.Errorf("status line is malformed: %q", line)
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return StatusLine{}, errors.Wrap(err, "parsing version")
	}

	statusCodeStr := string(parts[1])
	statusCode, err := strconv.ParseUint(statusCodeStr, 10, 64)
	if err != nil || len(statusCodeStr) != 3 {
		return StatusLine{}, errors.Errorf("status code is malformed: %q", statusCodeStr)
	}

	// reason-phrase is optional.
	reasonPhrase := string(parts[2])

	return StatusLine{Version: ver, StatusCode: uint(statusCode), ReasonPhrase: reasonPhrase}, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func isValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			continue
		}

		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+',
			'-', '.', '^', '_', '`', '|', '~':
			continue
		}

		return false
	}

	return true
}
