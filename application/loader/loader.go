// Package loader turns a url into displayable text.
package loader

import (
	"context"
	"log/slog"

	"webfetch/application/http/actor/client"
	"webfetch/application/render"
	"webfetch/application/util/domain"
	"webfetch/application/util/uri"
	"webfetch/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var ErrUnsupportedScheme = errors.New("unsupported scheme")

// Loader dispatches on the url scheme.
// http and https urls share one [client.Resolver], so consecutive loads may reuse a connection.
type Loader struct {
	resolver *client.Resolver
	logger   *slog.Logger
}

func New(
	d transport.ConnDialer,
	lookuper domain.Lookuper,
	logger *slog.Logger,
	clock clock.Clock,
	opts client.Options,
) *Loader {
	return &Loader{
		resolver: client.NewResolver(d, lookuper, logger, clock, opts),
		logger:   logger,
	}
}

// Load parses raw, fetches it and renders the result.
// A view-source url is returned unrendered.
func (l *Loader) Load(ctx context.Context, raw string) (string, error) {
	u, err := uri.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "parsing url")
	}

	body, err := l.Fetch(ctx, u)
	if err != nil {
		return "", err
	}

	if u.ViewSource() {
		return body, nil
	}

	return render.Text(body), nil
}

// Fetch returns the raw content u points to.
func (l *Loader) Fetch(ctx context.Context, u uri.URL) (string, error) {
	l.logger.Debug("fetching", "url", u.String())

	switch u := u.(type) {
	case uri.HTTP:
		response, err := l.resolver.Resolve(ctx, u)
		if err != nil {
			return "", errors.Wrapf(err, "fetching %s", u.String())
		}
		return string(response.Body), nil
	case uri.File:
		return ReadFile(u.Path)
	case uri.Data:
		return DecodeData(u.Payload)
	}

	return "", errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme())
}

func (l *Loader) Close() error {
	return l.resolver.Close()
}
