package semantic

import (
	"webfetch/application/http"
	"webfetch/application/http/semantic/status"
)

type Response struct {
	Message

	Status status.Status
}

// ResponseFrom reads the body of raw according to its headers.
// Only content-length framing is supported. raw.Body is never read past the declared length.
func ResponseFrom(raw *http.Response) (*Response, error) {
	response := Response{
		Status: status.Status{Code: raw.StatusCode, ReasonPhrase: raw.ReasonPhrase},
	}

	// reason-phrase is optional on the wire.
	if response.Status.ReasonPhrase == "" {
		response.Status, _ = status.FromCode(raw.StatusCode)
	}

	var err error
	response.Message, err = createMessage(raw.Version, raw.Headers, raw.Body)
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// Location returns the redirect target of a 3xx response.
func (r *Response) Location() (string, bool) {
	if !r.Status.IsRedirection() {
		return "", false
	}
	return r.Headers.Get("Location")
}
