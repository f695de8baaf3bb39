package tlssocket

import (
	"io"
	"log/slog"
	"time"

	"github.com/mash-protocol/tlssocket/pkg/engine"
	"github.com/mash-protocol/tlssocket/pkg/log"
	"github.com/mash-protocol/tlssocket/pkg/metrics"
	"github.com/mash-protocol/tlssocket/pkg/socket"
	"github.com/mash-protocol/tlssocket/pkg/tlsctx"
)

// Defaults.
const (
	// DefaultHandshakeTimeout bounds dial and handshake when the context
	// passed to Connect has no deadline.
	DefaultHandshakeTimeout = 30 * time.Second

	// DefaultMaxHandshakeSteps bounds how often a handshake that keeps
	// asking to be stepped again is re-entered.
	DefaultMaxHandshakeSteps = 64
)

// Option configures a Channel.
type Option func(*options)

type options struct {
	socket socket.Socket

	logger         *slog.Logger
	protocolLogger log.Logger
	captureLimit   int
	metrics        *metrics.Metrics

	entropySources  []io.Reader
	personalization []byte
	factory         engine.Factory
	minVersion      uint16
	maxVersion      uint16
	alpn            []string
	serverName      string

	handshakeTimeout  time.Duration
	ioTimeout         time.Duration
	maxHandshakeSteps int
}

func defaultOptions() options {
	return options{
		captureLimit:      log.MaxCaptureSize,
		handshakeTimeout:  DefaultHandshakeTimeout,
		maxHandshakeSteps: DefaultMaxHandshakeSteps,
	}
}

// bundleOptions translates the channel options into crypto context options.
func (o *options) bundleOptions() []tlsctx.Option {
	var opts []tlsctx.Option
	if len(o.entropySources) > 0 {
		opts = append(opts, tlsctx.WithEntropySources(o.entropySources...))
	}
	if o.personalization != nil {
		opts = append(opts, tlsctx.WithPersonalization(o.personalization))
	}
	if o.factory != nil {
		opts = append(opts, tlsctx.WithEngineFactory(o.factory))
	}
	if o.metrics != nil {
		opts = append(opts, tlsctx.WithObserver(o.metrics))
	}
	if o.minVersion != 0 {
		opts = append(opts, tlsctx.WithMinVersion(o.minVersion))
	}
	if o.maxVersion != 0 {
		opts = append(opts, tlsctx.WithMaxVersion(o.maxVersion))
	}
	if len(o.alpn) > 0 {
		opts = append(opts, tlsctx.WithNextProtos(o.alpn...))
	}
	return opts
}

// WithSocket sets the transport socket. Default: a blocking socket.TCPSocket.
func WithSocket(s socket.Socket) Option {
	return func(o *options) {
		o.socket = s
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithProtocolLogger sets the logger receiving protocol events.
func WithProtocolLogger(l log.Logger) Option {
	return func(o *options) {
		o.protocolLogger = l
	}
}

// WithPayloadCapture limits how many payload bytes each IO event carries.
// Zero records sizes only. Default: log.MaxCaptureSize.
func WithPayloadCapture(limit int) Option {
	return func(o *options) {
		o.captureLimit = limit
	}
}

// WithMetrics records channel activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithEntropySource adds an entropy source, for example a hardware RNG.
// When any source is set, the OS source is no longer used implicitly.
func WithEntropySource(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.entropySources = append(o.entropySources, r)
		}
	}
}

// WithPersonalization sets the DRBG personalization string.
func WithPersonalization(p []byte) Option {
	return func(o *options) {
		o.personalization = p
	}
}

// WithEngineFactory sets how TLS sessions are created.
// Default: crypto/tls through engine.NewFactory.
func WithEngineFactory(f engine.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithMinVersion sets the lowest accepted TLS version. Default: TLS 1.2.
func WithMinVersion(v uint16) Option {
	return func(o *options) {
		o.minVersion = v
	}
}

// WithMaxVersion caps the TLS version.
func WithMaxVersion(v uint16) Option {
	return func(o *options) {
		o.maxVersion = v
	}
}

// WithALPN sets the application protocols offered during the handshake.
func WithALPN(protos ...string) Option {
	return func(o *options) {
		o.alpn = protos
	}
}

// WithServerName overrides the name the server certificate is checked
// against. Default: the host passed to Connect.
func WithServerName(name string) Option {
	return func(o *options) {
		o.serverName = name
	}
}

// WithHandshakeTimeout bounds dial and handshake when the Connect context
// has no deadline.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.handshakeTimeout = d
		}
	}
}

// WithIOTimeout bounds each transport call once the session is established.
// Zero blocks indefinitely. Only sockets implementing socket.TimeoutSetter
// honor it.
func WithIOTimeout(d time.Duration) Option {
	return func(o *options) {
		o.ioTimeout = d
	}
}

// WithMaxHandshakeSteps bounds how often the handshake is re-entered.
func WithMaxHandshakeSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxHandshakeSteps = n
		}
	}
}
