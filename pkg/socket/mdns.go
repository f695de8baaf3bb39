package socket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// mDNS defaults.
const (
	// DefaultMDNSDomain is the browse domain for link-local services.
	DefaultMDNSDomain = "local."

	// DefaultMDNSTimeout bounds a single lookup.
	DefaultMDNSTimeout = 3 * time.Second
)

// browseFunc matches zeroconf.Browse without client options.
type browseFunc func(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry) error

// MDNSResolver resolves ".local" host names by browsing an mDNS service type
// and matching the advertised host name. Devices on a LAN usually announce
// the service they speak, so the browse doubles as host discovery.
type MDNSResolver struct {
	// Service is the DNS-SD service type to browse, e.g. "_mqtt._tcp".
	Service string

	// Domain is the browse domain. Default: "local.".
	Domain string

	// Timeout bounds a lookup. Default: 3 seconds.
	Timeout time.Duration

	browse browseFunc
}

// NewMDNSResolver creates a resolver browsing the given service type.
func NewMDNSResolver(service string) *MDNSResolver {
	return &MDNSResolver{
		Service: service,
		Domain:  DefaultMDNSDomain,
		Timeout: DefaultMDNSTimeout,
		browse: func(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry) error {
			return zeroconf.Browse(ctx, service, domain, entries, removed)
		},
	}
}

// LookupHost implements HostResolver.
func (r *MDNSResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if r.Service == "" {
		return nil, fmt.Errorf("mdns lookup %s: no service type: %w", host, ErrParameter)
	}
	domain := r.Domain
	if domain == "" {
		domain = DefaultMDNSDomain
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultMDNSTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	go func() {
		_ = r.browse(ctx, r.Service, domain, entries, removed)
	}()

	want := canonicalHost(host)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return nil, fmt.Errorf("mdns lookup %s: %w", host, ErrDNSFailure)
			}
			if addrs := entryAddresses(entry, want); len(addrs) > 0 {
				return addrs, nil
			}
		case _, ok := <-removed:
			if !ok {
				removed = nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("mdns lookup %s: %w: %w", host, ErrDNSFailure, ctx.Err())
		}
	}
}

// entryAddresses returns the addresses of entry when it advertises host.
func entryAddresses(entry *zeroconf.ServiceEntry, host string) []string {
	if entry == nil || canonicalHost(entry.HostName) != host {
		return nil
	}
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

func canonicalHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(host), ".")
}
