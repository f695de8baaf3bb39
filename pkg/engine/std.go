package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"time"
)

// StdEngine is an Engine backed by crypto/tls.
//
// crypto/tls runs the whole handshake in one call, so Handshake never asks
// to be stepped again; retry conditions are absorbed by the BIO adapter.
type StdEngine struct {
	opts options
	bio  *bioConn
	conn *tls.Conn
}

// NewStdEngine creates an empty crypto/tls session.
func NewStdEngine(opts ...Option) *StdEngine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &StdEngine{opts: o}
}

// NewFactory returns a Factory producing StdEngine sessions.
func NewFactory(opts ...Option) Factory {
	return func() Engine {
		return NewStdEngine(opts...)
	}
}

// Setup implements Engine.
func (e *StdEngine) Setup(cfg *tls.Config, bio BIO) error {
	if cfg == nil || bio == nil {
		return ErrInvalidSetup
	}
	if e.conn != nil {
		return ErrAlreadySetup
	}
	e.bio = newBIOConn(bio, e.opts)
	e.conn = tls.Client(e.bio, cfg)
	return nil
}

// Handshake implements Engine. The context deadline also bounds retry waits.
func (e *StdEngine) Handshake(ctx context.Context) error {
	if e.conn == nil {
		return ErrNotSetup
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = e.bio.SetDeadline(deadline)
		defer e.bio.SetDeadline(time.Time{})
	}

	if err := e.conn.HandshakeContext(ctx); err != nil {
		return err
	}
	e.bio.blockReads.Store(false)
	return nil
}

// Read implements Engine.
func (e *StdEngine) Read(p []byte) (int, error) {
	if e.conn == nil {
		return 0, ErrNotSetup
	}
	n, err := e.conn.Read(p)
	if err != nil {
		var wb wouldBlockError
		if errors.As(err, &wb) {
			return n, ErrWantRead
		}
	}
	return n, err
}

// Write implements Engine.
func (e *StdEngine) Write(p []byte) (int, error) {
	if e.conn == nil {
		return 0, ErrNotSetup
	}
	return e.conn.Write(p)
}

// CloseNotify implements Engine.
func (e *StdEngine) CloseNotify() error {
	if e.conn == nil {
		return ErrNotSetup
	}
	return e.conn.CloseWrite()
}

// ConnectionState implements Engine.
func (e *StdEngine) ConnectionState() tls.ConnectionState {
	if e.conn == nil {
		return tls.ConnectionState{}
	}
	return e.conn.ConnectionState()
}

// Free implements Engine. The underlying transport is left to the BIO owner.
func (e *StdEngine) Free() {
	if e.bio != nil {
		_ = e.bio.Close()
	}
	e.conn = nil
	e.bio = nil
}
