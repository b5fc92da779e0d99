package loader

import (
	"strings"

	"webfetch/application/util/uri"

	"github.com/pkg/errors"
)

var (
	ErrMalformedDataURL    = errors.New("malformed data url")
	ErrUnsupportedMimeType = errors.New("unsupported mime type")
)

const defaultMimeType = "text/plain"

// DecodeData decodes the "mimeType,content" payload of a data url.
// Only text types are supported. Their content is percent-decoded.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc2397#section-2
func DecodeData(payload string) (string, error) {
	mimeType, content, found := strings.Cut(payload, ",")
	if !found {
		return "", errors.Wrapf(ErrMalformedDataURL, "no comma in %q", payload)
	}

	if mimeType == "" {
		mimeType = defaultMimeType
	}

	if !strings.HasPrefix(mimeType, "text/") {
		return "", errors.Wrapf(ErrUnsupportedMimeType, "%q", mimeType)
	}

	return uri.PercentDecode(content), nil
}
