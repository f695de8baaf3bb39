package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// DefaultDialTimeout bounds a dial when neither the context nor the socket
// carry a deadline.
const DefaultDialTimeout = 30 * time.Second

// HostResolver resolves a host name to IP address strings.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// NetStack is the host operating system's network stack.
type NetStack struct {
	// Dialer dials resolved addresses. Nil uses a zero net.Dialer.
	Dialer *net.Dialer

	// LocalResolver, if set, resolves link-local names ending in ".local"
	// (for example via mDNS). Other names go through the system resolver.
	LocalResolver HostResolver
}

// NewNetStack returns a stack backed by the system resolver.
func NewNetStack() *NetStack {
	return &NetStack{}
}

// DialContext implements Stack.
func (s *NetStack) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDialTimeout)
		defer cancel()
	}

	dialer := s.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	if s.LocalResolver == nil || !IsLocalHost(host) {
		return dialer.DialContext(ctx, network, address)
	}

	addrs, err := s.LocalResolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolve %s: %w", host, ErrNoAddress)
	}

	var errs []error
	for _, addr := range addrs {
		conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(addr, port))
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// IsLocalHost reports whether host is a link-local (".local") name.
func IsLocalHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	return strings.HasSuffix(host, ".local")
}
