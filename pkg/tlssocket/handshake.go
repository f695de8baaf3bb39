package tlssocket

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mash-protocol/tlssocket/pkg/cert"
	"github.com/mash-protocol/tlssocket/pkg/engine"
	"github.com/mash-protocol/tlssocket/pkg/log"
	"github.com/mash-protocol/tlssocket/pkg/metrics"
	"github.com/mash-protocol/tlssocket/pkg/socket"
	"github.com/mash-protocol/tlssocket/pkg/tlsctx"
)

// errStepBudget is reported when the handshake keeps asking to be stepped
// past the configured budget.
var errStepBudget = errors.New("handshake step budget exhausted")

// Connect opens the transport to host:port and runs the TLS handshake. The
// server certificate must chain to the configured root CA and match host
// (or the name set with WithServerName).
//
// A root CA must be set first; otherwise Connect fails with ErrConfiguration
// and leaves the channel Failed without touching the transport. Any other
// failure also closes the transport and releases the crypto context. A Failed
// channel may connect again.
func (c *Channel) Connect(ctx context.Context, host string, port uint16) error {
	switch c.state {
	case StateEstablished, StateHandshakeInProgress, StateTransportConnected:
		return newError("connect", ErrInvalidState, CodeAlreadyConnected, nil)
	case StateClosed:
		return newError("connect", ErrInvalidState, CodeInvalidState, nil)
	}

	if err := c.creds.Validate(); err != nil {
		return c.fail(newError("connect", ErrConfiguration, CodeConfiguration, err), "configuration incomplete")
	}
	if host == "" {
		return c.fail(newError("connect", ErrConfiguration, CodeConfiguration, errors.New("empty host")), "configuration incomplete")
	}
	if c.state == StateFailed {
		// A session that broke after the handshake still holds the transport.
		c.release()
	}

	if !c.bundle.Initialized() {
		if err := c.bundle.Initialize(); err != nil {
			c.setState(StateFailed, "crypto context allocation failed")
			return newError("connect", ErrAllocation, CodeAllocation, err)
		}
	}
	if !c.opened {
		if c.stack == nil {
			return c.abort(newError("connect", ErrTransport, int(socket.ErrNoSocket), socket.ErrNoSocket), "transport not open")
		}
		if err := c.sock.Open(c.stack); err != nil {
			return c.abort(transportError("connect", err), "transport open failed")
		}
		c.opened = true
	}

	c.connID = uuid.NewString()
	c.remoteAddr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	c.serverName = host
	if c.opts.serverName != "" {
		c.serverName = c.opts.serverName
	}
	c.peerClosed = false
	c.shim.lastErr = nil

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.handshakeTimeout)
		defer cancel()
	}
	deadline, _ := ctx.Deadline()
	c.setTimeout(max(time.Until(deadline), time.Millisecond))

	c.debugLog("connecting", "conn_id", c.connID, "address", c.remoteAddr, "server_name", c.serverName)
	start := time.Now()

	if err := c.sock.Connect(ctx, host, port); err != nil {
		return c.abort(transportError("connect", err), "transport connect failed")
	}
	c.setState(StateTransportConnected, "transport connected")

	if err := c.bundle.Configure(&c.creds, c.serverName, c.shim); err != nil {
		return c.abort(configureError(err), "configure failed")
	}

	c.setState(StateHandshakeInProgress, "handshake started")
	if err := c.handshake(ctx); err != nil {
		return c.abort(err, "handshake failed")
	}

	elapsed := time.Since(start)
	c.setTimeout(c.opts.ioTimeout)
	c.setState(StateEstablished, "handshake complete")

	state := c.bundle.Session().ConnectionState()
	c.opts.metrics.RecordHandshake(metrics.ResultSuccess, elapsed)
	c.logHandshake(state, elapsed)
	c.debugLog("handshake complete",
		"conn_id", c.connID,
		"version", tls.VersionName(state.Version),
		"cipher_suite", tls.CipherSuiteName(state.CipherSuite),
		"duration", elapsed)
	return nil
}

// ConnectWithCredentials sets the root CA and client certificate/key, then
// connects. Nil client buffers clear any previously set client pair.
func (c *Channel) ConnectWithCredentials(ctx context.Context, host string, port uint16, rootCA, clientCert, clientKey []byte) error {
	if err := c.SetRootCACert(rootCA); err != nil {
		return err
	}
	if err := c.SetClientCertKey(clientCert, clientKey); err != nil {
		return err
	}
	return c.Connect(ctx, host, port)
}

// handshake steps the session until it completes, fails, runs out of steps
// or the context ends.
func (c *Channel) handshake(ctx context.Context) *Error {
	session := c.bundle.Session()
	for step := 1; ; step++ {
		err := session.Handshake(ctx)
		if err == nil {
			return nil
		}
		if !engine.IsRetry(err) {
			return c.handshakeError(ctx, err)
		}

		c.debugLog("handshake step", "conn_id", c.connID, "step", step, "want", err.Error())
		if step >= c.opts.maxHandshakeSteps {
			return newError("connect", ErrTransport, int(socket.ErrWouldBlock), fmt.Errorf("%w after %d steps", errStepBudget, step))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return newError("connect", ErrHandshake, CodeHandshake, ctxErr)
		}
	}
}

// handshakeError classifies a failed handshake step.
func (c *Channel) handshakeError(ctx context.Context, err error) *Error {
	if flags := cert.FlagsFromError(err); flags != 0 {
		e := newError("connect", ErrCertificateVerification, CodeCertificateVerification, err)
		e.Flags = flags
		return e
	}

	// Running out of time is a handshake failure even when the transport
	// noticed first.
	switch {
	case ctx.Err() != nil, errors.Is(c.shim.lastErr, socket.ErrTimeout):
		return newError("connect", ErrHandshake, CodeHandshake, err)
	case c.shim.lastErr != nil:
		return transportError("connect", c.shim.lastErr)
	case errors.Is(err, engine.ErrRetryExhausted):
		return newError("connect", ErrTransport, int(socket.ErrTimeout), err)
	case errors.Is(err, engine.ErrIOFatal), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return newError("connect", ErrTransport, int(socket.ErrConnectionLost), err)
	}
	return newError("connect", ErrHandshake, CodeHandshake, err)
}

// configureError classifies a failure to bind credentials to the session.
func configureError(err error) *Error {
	if errors.Is(err, tlsctx.ErrCertificateParse) {
		return newError("connect", ErrCertificateParse, CodeCertificateParse, err)
	}
	return newError("connect", ErrConfiguration, CodeConfiguration, err)
}

// abort closes the transport, releases the crypto context and marks the
// channel failed.
func (c *Channel) abort(e *Error, reason string) error {
	c.report(e, reason)
	c.release()
	c.setState(StateFailed, reason)
	return e
}

// fail marks the channel failed and leaves the transport as it is.
func (c *Channel) fail(e *Error, reason string) error {
	c.report(e, reason)
	c.setState(StateFailed, reason)
	return e
}

func (c *Channel) report(e *Error, reason string) {
	c.debugLog("connect failed", "conn_id", c.connID, "error", e, "code", e.Code)
	c.logError(log.LayerChannel, e, reason)
	if e.Flags != 0 {
		c.debugLog("certificate verification", "conn_id", c.connID, "flags", e.Flags.String())
	}
	c.opts.metrics.RecordHandshake(handshakeResult(e), 0)
}

// release closes the transport and frees the crypto context.
func (c *Channel) release() {
	if c.opened {
		if err := c.sock.Close(); err != nil {
			c.debugLog("transport close failed", "error", err)
		}
		c.opened = false
	}
	c.bundle.Teardown()
}

func (c *Channel) setTimeout(d time.Duration) {
	if ts, ok := c.sock.(socket.TimeoutSetter); ok {
		ts.SetTimeout(d)
	}
}

func handshakeResult(e *Error) string {
	switch {
	case errors.Is(e, ErrCertificateVerification):
		return metrics.ResultVerification
	case errors.Is(e, ErrTransport):
		return metrics.ResultTransport
	case errors.Is(e, ErrHandshake):
		return metrics.ResultHandshake
	}
	return metrics.ResultConfig
}
