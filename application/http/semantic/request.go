package semantic

import (
	"webfetch/application/http"
	"webfetch/application/util/uri"
)

// NewRequest builds the GET request for u.
// The header set is fixed and sent in this order.
func NewRequest(u uri.HTTP) http.Request {
	return http.Request{
		RequestLine: http.RequestLine{
			Method:  string(MethodGet),
			Target:  u.Path,
			Version: http.Version{1, 1},
		},
		Headers: []http.Field{
			{Name: []byte("Host"), Value: []byte(u.Host)},
			{Name: []byte("Connection"), Value: []byte("keep-alive")},
			{Name: []byte("User-Agent"), Value: []byte(UserAgent)},
		},
	}
}
