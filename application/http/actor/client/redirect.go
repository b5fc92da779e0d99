package client

import (
	"context"
	"log/slog"
	"strings"

	"webfetch/application/http/semantic"
	"webfetch/application/util/domain"
	"webfetch/application/util/uri"
	"webfetch/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// MaxRedirects is the number of redirects a resolution follows before giving up.
const MaxRedirects = 6

var (
	ErrTooManyRedirects    = errors.New("too many redirects")
	ErrUnsupportedRedirect = errors.New("unsupported redirect")
)

// Resolver follows redirects on top of a [Client].
// A redirect to the same origin reuses the connection.
// A redirect to an absolute url starts over with a fresh client.
type Resolver struct {
	client    *Client
	newClient func() *Client

	logger *slog.Logger
}

func NewResolver(
	d transport.ConnDialer,
	lookuper domain.Lookuper,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Resolver {
	newClient := func() *Client { return New(d, lookuper, logger, clock, opts) }

	return &Resolver{
		client:    newClient(),
		newClient: newClient,
		logger:    logger,
	}
}

// Resolve sends u and follows up to [MaxRedirects] redirects.
// The hop count is shared across origins.
func (r *Resolver) Resolve(ctx context.Context, u uri.HTTP) (*semantic.Response, error) {
	redirects := 0
	for {
		response, err := r.client.Send(ctx, u)
		if err != nil {
			return nil, err
		}

		location, ok := response.Location()
		if !ok {
			// Not a redirect, or a 3xx without location.
			return response, nil
		}

		redirects++
		if redirects > MaxRedirects {
			return nil, errors.Wrapf(ErrTooManyRedirects, "%d redirects from %s", MaxRedirects, u.String())
		}

		next, fresh, err := nextURL(u, location)
		if err != nil {
			return nil, err
		}

		r.logger.Debug("following redirect",
			"status", response.Status.Code,
			"from", u.String(),
			"to", next.String(),
			"hop", redirects,
		)

		if fresh {
			// Host may differ. Start over on a new connection.
			if err := r.client.Close(); err != nil {
				return nil, errors.Wrap(err, "closing client")
			}
			r.client = r.newClient()
		}

		u = next
	}
}

func (r *Resolver) Close() error {
	return r.client.Close()
}

// nextURL resolves location against u.
// The bool reports whether location was an absolute url.
func nextURL(u uri.HTTP, location string) (uri.HTTP, bool, error) {
	switch {
	case uri.HasScheme(location):
		parsed, err := uri.Parse(location)
		if err != nil {
			return uri.HTTP{}, false, errors.Wrap(ErrUnsupportedRedirect, err.Error())
		}

		target, ok := parsed.(uri.HTTP)
		if !ok {
			return uri.HTTP{}, false, errors.Wrapf(ErrUnsupportedRedirect, "scheme %q", parsed.Scheme())
		}

		return target, true, nil
	case strings.HasPrefix(location, "/"):
		u.Path = location
		return u, false, nil
	}

	// Relative references are not resolved.
	return uri.HTTP{}, false, errors.Wrapf(ErrUnsupportedRedirect, "location %q", location)
}
