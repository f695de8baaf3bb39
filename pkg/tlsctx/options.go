package tlsctx

import (
	"crypto/tls"
	"io"

	"github.com/mash-protocol/tlssocket/pkg/engine"
)

// DefaultPersonalization is mixed into the DRBG seed when none is configured.
var DefaultPersonalization = []byte("tlssocket client")

// Observer is notified of bundle lifecycle events. Every BundleInitialized
// is followed by exactly one BundleTornDown.
type Observer interface {
	BundleInitialized()
	BundleTornDown()
}

// Option configures a Bundle.
type Option func(*options)

type options struct {
	entropySources  []io.Reader
	personalization []byte
	reseedInterval  int
	factory         engine.Factory
	observer        Observer
	minVersion      uint16
	maxVersion      uint16
	nextProtos      []string

	// trace records release steps; tests only.
	trace func(step string)
}

func defaultOptions() options {
	return options{
		personalization: DefaultPersonalization,
		factory:         engine.NewFactory(),
		minVersion:      tls.VersionTLS12,
	}
}

// WithEntropySources replaces the default OS entropy with the given sources,
// for example a hardware RNG.
func WithEntropySources(sources ...io.Reader) Option {
	return func(o *options) {
		o.entropySources = sources
	}
}

// WithPersonalization sets the DRBG personalization string.
func WithPersonalization(p []byte) Option {
	return func(o *options) {
		o.personalization = p
	}
}

// WithReseedInterval sets how many bytes the DRBG produces between reseeds.
func WithReseedInterval(n int) Option {
	return func(o *options) {
		o.reseedInterval = n
	}
}

// WithEngineFactory sets how sessions are created.
func WithEngineFactory(f engine.Factory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithObserver registers a lifecycle observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithMinVersion sets the lowest accepted TLS version. Default: TLS 1.2.
func WithMinVersion(v uint16) Option {
	return func(o *options) {
		o.minVersion = v
	}
}

// WithMaxVersion caps the TLS version. Zero leaves the engine default.
func WithMaxVersion(v uint16) Option {
	return func(o *options) {
		o.maxVersion = v
	}
}

// WithNextProtos sets the ALPN protocols offered to the server.
func WithNextProtos(protos ...string) Option {
	return func(o *options) {
		o.nextProtos = protos
	}
}
