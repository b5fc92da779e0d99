package semantic

import "github.com/pkg/errors"

type Method string

const MethodGet Method = "GET"

// UserAgent identifies every request this client sends.
const UserAgent = "webfetch/0.1"

// ErrUnsupportedFeature is returned for messages that need a decoder this client lacks,
// such as chunked transfer coding or compressed content.
var ErrUnsupportedFeature = errors.New("unsupported http feature")
