package engine

import (
	"context"
	"crypto/tls"
	"errors"
)

// Engine errors.
var (
	// ErrWantRead means the engine needs more input before it can continue.
	ErrWantRead = errors.New("engine: want read")

	// ErrWantWrite means the engine could not flush its output yet.
	ErrWantWrite = errors.New("engine: want write")

	// ErrIOFatal marks a transport failure reported through the BIO.
	ErrIOFatal = errors.New("engine: fatal I/O error")

	// ErrRetryExhausted means the BIO kept asking for a retry past the budget.
	ErrRetryExhausted = errors.New("engine: retry budget exhausted")

	// ErrNotSetup is returned by session calls before Setup.
	ErrNotSetup = errors.New("engine: session not set up")

	// ErrAlreadySetup is returned when Setup is called twice on one session.
	ErrAlreadySetup = errors.New("engine: session already set up")

	// ErrInvalidSetup is returned when Setup is given a nil config or BIO.
	ErrInvalidSetup = errors.New("engine: nil config or BIO")
)

// BIO moves raw TLS bytes between an engine and its transport.
//
// Send returns the number of bytes accepted, which may be fewer than offered.
// Recv returns the number of bytes read, or io.EOF once the peer has shut
// down its side. Both return ErrWantRead or ErrWantWrite (possibly wrapped)
// when no data could move, and an error wrapping ErrIOFatal on transport
// failure.
type BIO interface {
	Send(p []byte) (int, error)
	Recv(p []byte) (int, error)
}

// Engine is a single client-side TLS session.
type Engine interface {
	// Setup binds the configuration and BIO to the session. The config must
	// carry ServerName before the first handshake step.
	Setup(cfg *tls.Config, bio BIO) error

	// Handshake advances the handshake. It returns nil once the session is
	// established, ErrWantRead or ErrWantWrite when it must be called again,
	// and any other error on failure.
	Handshake(ctx context.Context) error

	// Read decrypts application data into p. It returns io.EOF after an
	// orderly shutdown by the peer and ErrWantRead when no record is ready.
	Read(p []byte) (int, error)

	// Write encrypts and sends p as one or more records.
	Write(p []byte) (int, error)

	// CloseNotify sends a close_notify alert.
	CloseNotify() error

	// ConnectionState reports the negotiated parameters.
	ConnectionState() tls.ConnectionState

	// Free releases the session. It is safe to call more than once.
	Free()
}

// Factory creates an empty session.
type Factory func() Engine

// IsRetry reports whether err asks the caller to step again.
func IsRetry(err error) bool {
	return errors.Is(err, ErrWantRead) || errors.Is(err, ErrWantWrite)
}
