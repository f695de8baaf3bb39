package tlssocket

import (
	"crypto/tls"
	"errors"
	"io"
	"time"

	"github.com/mash-protocol/tlssocket/pkg/cert"
	"github.com/mash-protocol/tlssocket/pkg/engine"
	"github.com/mash-protocol/tlssocket/pkg/log"
	"github.com/mash-protocol/tlssocket/pkg/metrics"
	"github.com/mash-protocol/tlssocket/pkg/socket"
	"github.com/mash-protocol/tlssocket/pkg/tlsctx"
)

// Channel is a TLS client session over a transport socket.
type Channel struct {
	opts options

	sock   socket.Socket
	stack  socket.Stack
	opened bool

	creds  cert.Credentials
	bundle *tlsctx.Bundle
	shim   *shim

	state      State
	peerClosed bool

	// Per-connect identity for protocol events.
	connID     string
	remoteAddr string
	serverName string
}

// New creates a channel and its crypto context. The transport must be bound
// to a network stack with Open before Connect.
func New(opts ...Option) (*Channel, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.socket == nil {
		o.socket = socket.NewTCPSocket()
	}

	c := &Channel{
		opts:   o,
		sock:   o.socket,
		bundle: tlsctx.New(o.bundleOptions()...),
	}
	c.shim = &shim{ch: c}

	if err := c.bundle.Initialize(); err != nil {
		return nil, newError("new", ErrAllocation, CodeAllocation, err)
	}
	return c, nil
}

// NewWithStack creates a channel and opens its transport on stack.
func NewWithStack(stack socket.Stack, opts ...Option) (*Channel, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Open(stack); err != nil {
		c.bundle.Teardown()
		return nil, err
	}
	return c, nil
}

// Open binds the transport socket to stack.
func (c *Channel) Open(stack socket.Stack) error {
	if c.state == StateClosed {
		return newError("open", ErrInvalidState, CodeInvalidState, nil)
	}
	if err := c.sock.Open(stack); err != nil {
		return transportError("open", err)
	}
	c.stack = stack
	c.opened = true
	return nil
}

// SetRootCACert sets the PEM bundle of trusted root CAs. The buffer is not
// copied and must stay valid for the lifetime of the channel.
func (c *Channel) SetRootCACert(rootCA []byte) error {
	if err := c.checkCredentialsMutable(); err != nil {
		return err
	}
	c.creds.SetRootCA(rootCA)
	return nil
}

// SetClientCertKey sets the client certificate and private key presented
// when the server asks for one. The buffers are not copied.
func (c *Channel) SetClientCertKey(clientCert, clientKey []byte) error {
	if err := c.checkCredentialsMutable(); err != nil {
		return err
	}
	c.creds.SetClientCertKey(clientCert, clientKey)
	return nil
}

func (c *Channel) checkCredentialsMutable() error {
	switch c.state {
	case StateHandshakeInProgress, StateEstablished:
		return newError("set credentials", ErrInvalidState, CodeInvalidState, nil)
	}
	return nil
}

// Send encrypts data and writes it to the peer. It returns the number of
// bytes consumed, which is less than len(data) only on error.
//
// An error with code socket.ErrWouldBlock leaves the channel Established and
// the call may be repeated. Any other error means the session is unusable:
// the channel becomes Failed and must be closed or connected again.
func (c *Channel) Send(data []byte) (int, error) {
	if c.state != StateEstablished {
		return 0, newError("send", ErrInvalidState, CodeInvalidState, nil)
	}

	c.shim.lastErr = nil
	n, err := c.bundle.Session().Write(data)
	if n > 0 {
		c.logIO(log.DirectionOut, log.LayerRecord, data[:n])
		c.opts.metrics.RecordBytes(metrics.DirectionOut, metrics.LayerRecord, n)
	}
	if err != nil {
		return n, c.sessionError("send", err)
	}
	return n, nil
}

// Recv reads decrypted data into data. It blocks until data arrives on a
// blocking transport. It returns (0, nil) once the peer has shut the session
// down, and on every call after that. An empty data buffer also returns
// (0, nil) without reading; that is not a shutdown. Errors follow Send.
func (c *Channel) Recv(data []byte) (int, error) {
	if c.state != StateEstablished {
		return 0, newError("recv", ErrInvalidState, CodeInvalidState, nil)
	}
	if c.peerClosed || len(data) == 0 {
		return 0, nil
	}

	c.shim.lastErr = nil
	n, err := c.bundle.Session().Read(data)
	if n > 0 {
		c.logIO(log.DirectionIn, log.LayerRecord, data[:n])
		c.opts.metrics.RecordBytes(metrics.DirectionIn, metrics.LayerRecord, n)
	}
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF):
		c.peerClosed = true
		c.debugLog("peer closed session", "conn_id", c.connID)
		return n, nil
	}

	return n, c.sessionError("recv", err)
}

// sessionError classifies a failed Send or Recv. Only a would-block keeps the
// session; the engine does not recover from anything else.
func (c *Channel) sessionError(op string, err error) *Error {
	e := c.dataError(op, err)
	c.logError(log.LayerRecord, e, op)
	if !engine.IsRetry(err) {
		c.setState(StateFailed, op+" failed")
	}
	return e
}

// dataError classifies a failure of an established session.
func (c *Channel) dataError(op string, err error) *Error {
	switch {
	case engine.IsRetry(err):
		return newError(op, ErrTransport, int(socket.ErrWouldBlock), err)
	case c.shim.lastErr != nil:
		return transportError(op, c.shim.lastErr)
	case errors.Is(err, engine.ErrRetryExhausted):
		return newError(op, ErrTransport, int(socket.ErrTimeout), err)
	case errors.Is(err, engine.ErrIOFatal):
		return newError(op, ErrTransport, int(socket.ErrConnectionLost), err)
	}
	return newError(op, ErrProtocol, CodeProtocol, err)
}

// Read implements io.Reader. It returns io.EOF after the peer shut the
// session down.
func (c *Channel) Read(p []byte) (int, error) {
	n, err := c.Recv(p)
	if err == nil && n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, err
}

// Write implements io.Writer.
func (c *Channel) Write(p []byte) (int, error) {
	return c.Send(p)
}

// Close sends a close_notify when a session is established, closes the
// transport and releases the crypto context. It is safe to call more than
// once; only the first call does anything.
func (c *Channel) Close() error {
	if c.state == StateClosed {
		return nil
	}

	if c.state == StateEstablished {
		if err := c.bundle.Session().CloseNotify(); err != nil {
			c.debugLog("close_notify failed", "error", err)
		}
	}

	var err error
	if c.opened {
		if cerr := c.sock.Close(); cerr != nil {
			err = transportError("close", cerr)
		}
		c.opened = false
	}
	c.bundle.Teardown()
	c.setState(StateClosed, "closed")
	return err
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	return c.state
}

// ConnectionID identifies the most recent connect attempt in protocol events.
func (c *Channel) ConnectionID() string {
	return c.connID
}

// ConnectionState reports the negotiated session parameters. It is the zero
// value unless the channel is established.
func (c *Channel) ConnectionState() tls.ConnectionState {
	if c.state != StateEstablished {
		return tls.ConnectionState{}
	}
	return c.bundle.Session().ConnectionState()
}

// PeerCertificate describes the server's leaf certificate, or nil.
func (c *Channel) PeerCertificate() *cert.CertificateInfo {
	return cert.PeerInfo(c.ConnectionState())
}

func (c *Channel) setState(s State, reason string) {
	if c.state == s {
		return
	}
	old := c.state
	c.state = s
	c.debugLog("state change", "conn_id", c.connID, "from", old.String(), "to", s.String(), "reason", reason)
	c.logState(old, s, reason)
}

// debugLog logs a debug message if logging is enabled.
func (c *Channel) debugLog(msg string, args ...any) {
	if c.opts.logger != nil {
		c.opts.logger.Debug(msg, args...)
	}
}

func (c *Channel) event(dir log.Direction, layer log.Layer, cat log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    dir,
		Layer:        layer,
		Category:     cat,
		RemoteAddr:   c.remoteAddr,
		ServerName:   c.serverName,
	}
}

func (c *Channel) logIO(dir log.Direction, layer log.Layer, data []byte) {
	if c.opts.protocolLogger == nil {
		return
	}
	ev := c.event(dir, layer, log.CategoryIO)
	ev.IO = log.NewIOEvent(data, c.opts.captureLimit)
	c.opts.protocolLogger.Log(ev)
}

func (c *Channel) logState(old, s State, reason string) {
	if c.opts.protocolLogger == nil {
		return
	}
	ev := c.event(log.DirectionLocal, log.LayerChannel, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{
		OldState: old.String(),
		NewState: s.String(),
		Reason:   reason,
	}
	c.opts.protocolLogger.Log(ev)
}

func (c *Channel) logError(layer log.Layer, e *Error, during string) {
	if c.opts.protocolLogger == nil {
		return
	}
	code := e.Code
	ev := c.event(log.DirectionLocal, layer, log.CategoryError)
	ev.Error = &log.ErrorEventData{
		Layer:       layer,
		Message:     e.Error(),
		Code:        &code,
		Context:     during,
		VerifyFlags: uint32(e.Flags),
	}
	c.opts.protocolLogger.Log(ev)
}

func (c *Channel) logHandshake(state tls.ConnectionState, d time.Duration) {
	if c.opts.protocolLogger == nil {
		return
	}
	ev := c.event(log.DirectionLocal, log.LayerChannel, log.CategoryHandshake)
	hs := &log.HandshakeEvent{
		Version:     state.Version,
		CipherSuite: state.CipherSuite,
		ALPN:        state.NegotiatedProtocol,
		Resumed:     state.DidResume,
		Duration:    d,
	}
	if info := cert.PeerInfo(state); info != nil {
		hs.PeerSubject = info.Subject
		hs.PeerIssuer = info.Issuer
	}
	ev.Handshake = hs
	c.opts.protocolLogger.Log(ev)
}
