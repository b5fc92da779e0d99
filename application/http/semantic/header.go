package semantic

import (
	"strings"

	"webfetch/application/http"
)

// Headers maps lower-cased field names to a single value.
type Headers struct{ underlying map[string]string }

// HeadersFrom creates semantic header from raw fields.
// When a name repeats, the last value of the name is used.
func HeadersFrom(fields []http.Field) Headers {
	clone := make(map[string]string, len(fields))
	for _, field := range fields {
		clone[canonical(string(field.Name))] = strings.TrimSpace(string(field.Value))
	}

	return Headers{underlying: clone}
}

func (h *Headers) Get(key string) (value string, ok bool) {
	value, ok = h.underlying[canonical(key)]
	return
}

func canonical(s string) string { return strings.ToLower(s) }
