package discovery

import (
	"context"
	"errors"

	"github.com/grandcat/zeroconf"
)

// mDNS browse/resolve backed by zeroconf. Candidates come from Browse;
// Resolve performs a per-instance lookup so the machine controls the
// timeout for address resolution separately from the browse lifetime.

const mdnsDomain = "local."

type mdnsBrowser struct{}

// NewMDNSBrowser returns a Browser using multicast DNS on all interfaces.
func NewMDNSBrowser() Browser { return mdnsBrowser{} }

func (mdnsBrowser) Browse(ctx context.Context, service string, found chan<- Candidate) error {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return err
	}
	entries := make(chan *zeroconf.ServiceEntry, 16)
	go func() {
		for entry := range entries {
			c := Candidate{Instance: entry.Instance, Service: entry.Service, Domain: entry.Domain}
			select {
			case found <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return resolver.Browse(ctx, service, mdnsDomain, entries)
}

type mdnsResolver struct{}

// NewMDNSResolver returns a Resolver performing per-instance mDNS lookups.
func NewMDNSResolver() Resolver { return mdnsResolver{} }

var errNoAddress = errors.New("discovery: no address resolved")

func (mdnsResolver) Resolve(ctx context.Context, c Candidate) (Endpoint, error) {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return Endpoint{}, err
	}
	domain := c.Domain
	if domain == "" {
		domain = mdnsDomain
	}
	entries := make(chan *zeroconf.ServiceEntry, 1)
	if err := resolver.Lookup(ctx, c.Instance, c.Service, domain, entries); err != nil {
		return Endpoint{}, err
	}
	select {
	case entry, ok := <-entries:
		if !ok || entry == nil {
			return Endpoint{}, errNoAddress
		}
		host := entry.HostName
		if len(entry.AddrIPv4) > 0 {
			host = entry.AddrIPv4[0].String()
		}
		return Endpoint{Name: entry.Instance, Host: host, Port: entry.Port}, nil
	case <-ctx.Done():
		return Endpoint{}, ctx.Err()
	}
}
