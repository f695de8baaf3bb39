package tlsctx

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/mash-protocol/tlssocket/pkg/cert"
	"github.com/mash-protocol/tlssocket/pkg/engine"
)

// Bundle errors.
var (
	ErrAllocation         = errors.New("tlsctx: allocation failed")
	ErrCertificateParse   = errors.New("tlsctx: certificate parse failed")
	ErrNotInitialized     = errors.New("tlsctx: bundle not initialized")
	ErrAlreadyInitialized = errors.New("tlsctx: bundle already initialized")
)

// Bundle is the cryptographic state of one client session.
type Bundle struct {
	opts options

	entropy *Entropy
	drbg    *DRBG

	// Certificate holders.
	roots      *x509.CertPool
	clientCert *tls.Certificate

	config  *tls.Config
	session engine.Engine

	initialized bool
}

// New creates an uninitialized bundle.
func New(opts ...Option) *Bundle {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Bundle{opts: o}
}

// Initialize creates the entropy source, seeds the DRBG, and allocates empty
// certificate holders, configuration and session. On failure everything
// already created is released and the error wraps ErrAllocation.
func (b *Bundle) Initialize() error {
	if b.initialized {
		return ErrAlreadyInitialized
	}

	b.entropy = NewEntropy(b.opts.entropySources...)

	drbg, err := NewDRBG(b.entropy, b.opts.personalization, b.opts.reseedInterval)
	if err != nil {
		b.release()
		return fmt.Errorf("%w: random generator: %w", ErrAllocation, err)
	}
	b.drbg = drbg

	b.roots = x509.NewCertPool()
	b.clientCert = &tls.Certificate{}
	b.config = &tls.Config{}

	session := b.opts.factory()
	if session == nil {
		b.release()
		return fmt.Errorf("%w: session", ErrAllocation)
	}
	b.session = session

	b.initialized = true
	if b.opts.observer != nil {
		b.opts.observer.BundleInitialized()
	}
	return nil
}

// Configure parses the credentials into the certificate holders, builds the
// client configuration bound to serverName and attaches it and bio to the
// session. Malformed PEM data yields an error wrapping ErrCertificateParse.
func (b *Bundle) Configure(creds *cert.Credentials, serverName string, bio engine.BIO) error {
	if !b.initialized {
		return ErrNotInitialized
	}
	if creds == nil {
		return fmt.Errorf("%w: root CA: %w", ErrCertificateParse, cert.ErrNoRootCA)
	}

	roots, err := cert.CertPool(creds.RootCA)
	if err != nil {
		return fmt.Errorf("%w: root CA: %w", ErrCertificateParse, err)
	}
	b.roots = roots

	if creds.HasClientCert() {
		pair, err := cert.ParseKeyPair(creds.ClientCert, creds.ClientKey)
		if err != nil {
			return fmt.Errorf("%w: client certificate: %w", ErrCertificateParse, err)
		}
		b.clientCert = &pair
	}

	b.config.Rand = b.drbg
	b.config.RootCAs = b.roots
	b.config.ServerName = serverName
	b.config.MinVersion = b.opts.minVersion
	b.config.MaxVersion = b.opts.maxVersion
	b.config.NextProtos = b.opts.nextProtos
	if len(b.clientCert.Certificate) > 0 {
		b.config.Certificates = []tls.Certificate{*b.clientCert}
	}

	if err := b.session.Setup(b.config, bio); err != nil {
		return fmt.Errorf("session setup: %w", err)
	}
	return nil
}

// Session returns the session, or nil when not initialized.
func (b *Bundle) Session() engine.Engine {
	return b.session
}

// Config returns the session configuration, or nil when not initialized.
func (b *Bundle) Config() *tls.Config {
	return b.config
}

// Initialized reports whether the bundle holds live state.
func (b *Bundle) Initialized() bool {
	return b.initialized
}

// Teardown releases session, configuration, certificate holders, DRBG and
// entropy source, in that order. It is safe on a partially initialized or
// already released bundle.
func (b *Bundle) Teardown() {
	wasInitialized := b.initialized
	b.release()
	if wasInitialized && b.opts.observer != nil {
		b.opts.observer.BundleTornDown()
	}
}

func (b *Bundle) release() {
	if b.session != nil {
		b.session.Free()
		b.session = nil
		b.traceStep("session")
	}
	if b.config != nil {
		b.config = nil
		b.traceStep("config")
	}
	if b.clientCert != nil || b.roots != nil {
		b.clientCert = nil
		b.roots = nil
		b.traceStep("certificates")
	}
	if b.drbg != nil {
		b.drbg.Free()
		b.drbg = nil
		b.traceStep("drbg")
	}
	if b.entropy != nil {
		b.entropy.Free()
		b.entropy = nil
		b.traceStep("entropy")
	}
	b.initialized = false
}

func (b *Bundle) traceStep(step string) {
	if b.opts.trace != nil {
		b.opts.trace(step)
	}
}
