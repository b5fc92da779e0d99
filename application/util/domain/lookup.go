package domain

import (
	"context"
	"net"
	"net/netip"

	"github.com/pkg/errors"
)

var ErrDomainNotFound = errors.New("domain not found")

type Lookuper interface {
	LookupIP(ctx context.Context, domain string) (addrs []netip.Addr, err error)
}

// resolverLookuper asks the system resolver.
type resolverLookuper struct {
	r *net.Resolver
}

var _ Lookuper = (*resolverLookuper)(nil)

// NewResolverLookuper wraps r. If r is nil, [net.DefaultResolver] is used.
func NewResolverLookuper(r *net.Resolver) *resolverLookuper {
	if r == nil {
		r = net.DefaultResolver
	}
	return &resolverLookuper{r: r}
}

func (l *resolverLookuper) LookupIP(ctx context.Context, domain string) ([]netip.Addr, error) {
	addrs, err := l.r.LookupNetIP(ctx, "ip", domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, errors.Wrap(ErrDomainNotFound, err.Error())
		}
		return nil, errors.Wrapf(err, "resolving %s", domain)
	}
	if len(addrs) == 0 {
		return nil, ErrDomainNotFound
	}

	for i, addr := range addrs {
		addrs[i] = addr.Unmap()
	}

	return addrs, nil
}

type mapLookuper struct {
	set map[string][]netip.Addr
}

var _ Lookuper = (*mapLookuper)(nil)

func NewMapLookuper(set map[string][]netip.Addr) *mapLookuper {
	clone := make(map[string][]netip.Addr, len(set))
	for domain, addrs := range set {
		if len(addrs) > 0 {
			clone[domain] = addrs
		}
	}
	return &mapLookuper{set: clone}
}

func (m *mapLookuper) LookupIP(ctx context.Context, domain string) (addrs []netip.Addr, err error) {
	addrs, ok := m.set[domain]
	if !ok {
		return nil, ErrDomainNotFound
	}
	return addrs, nil
}

func (m *mapLookuper) Set(domain string, addrs []netip.Addr) {
	if len(addrs) == 0 {
		return
	}
	m.set[domain] = addrs
}

func (m *mapLookuper) Del(domain string) { delete(m.set, domain) }
