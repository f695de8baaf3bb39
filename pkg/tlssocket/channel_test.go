package tlssocket

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mash-protocol/tlssocket/pkg/cert"
	"github.com/mash-protocol/tlssocket/pkg/cert/certtest"
	"github.com/mash-protocol/tlssocket/pkg/engine"
	"github.com/mash-protocol/tlssocket/pkg/log"
	"github.com/mash-protocol/tlssocket/pkg/metrics"
	"github.com/mash-protocol/tlssocket/pkg/socket"
	"github.com/mash-protocol/tlssocket/pkg/socket/mocks"
)

func TestEchoRoundTrip(t *testing.T) {
	pki := newTestPKI(t)
	serverOnly := newFixedStack(t, startServer(t, pki.serverConfig(false), echo))
	mutual := newFixedStack(t, startServer(t, pki.serverConfig(true), echo))

	rapid.Check(t, func(rt *rapid.T) {
		withClientCert := rapid.Bool().Draw(rt, "withClientCert")
		payload := rapid.SliceOfN(rapid.Byte(), 1, 8192).Draw(rt, "payload")

		stack := serverOnly
		if withClientCert {
			stack = mutual
		}
		ch, err := NewWithStack(stack)
		require.NoError(rt, err)
		defer ch.Close()

		require.NoError(rt, ch.SetRootCACert(pki.ca.CertPEM))
		if withClientCert {
			require.NoError(rt, ch.SetClientCertKey(pki.client.CertPEM, pki.client.KeyPEM))
		}
		require.NoError(rt, ch.Connect(context.Background(), testHost, stack.port))
		require.Equal(rt, StateEstablished, ch.State())

		n, err := ch.Send(payload)
		require.NoError(rt, err)
		require.Equal(rt, len(payload), n)

		got := make([]byte, len(payload))
		_, err = io.ReadFull(ch, got)
		require.NoError(rt, err)
		require.Equal(rt, payload, got)
	})
}

func TestServerNameBinding(t *testing.T) {
	pki := newTestPKI(t)
	stack := newFixedStack(t, startServer(t, pki.serverConfig(false), echo))

	t.Run("matching name", func(t *testing.T) {
		ch, err := NewWithStack(stack)
		require.NoError(t, err)
		defer ch.Close()

		require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
		require.NoError(t, ch.Connect(context.Background(), "example.test", stack.port))

		info := ch.PeerCertificate()
		require.NotNil(t, info)
		assert.Contains(t, info.DNSNames, "example.test")
	})

	t.Run("other name", func(t *testing.T) {
		ch, err := NewWithStack(stack)
		require.NoError(t, err)
		defer ch.Close()

		require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
		err = ch.Connect(context.Background(), "other.test", stack.port)
		require.ErrorIs(t, err, ErrCertificateVerification)
		assert.Equal(t, CodeCertificateVerification, Code(err))
		assert.Equal(t, StateFailed, ch.State())

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.True(t, e.Flags.Has(cert.FlagCNMismatch))
		assert.Contains(t, e.Flags.String(), "Common Name")
	})

	t.Run("override", func(t *testing.T) {
		ch, err := NewWithStack(stack, WithServerName("example.test"))
		require.NoError(t, err)
		defer ch.Close()

		require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
		require.NoError(t, ch.Connect(context.Background(), "other.test", stack.port))
	})
}

func TestUntrustedRootFails(t *testing.T) {
	pki := newTestPKI(t)
	stranger := certtest.NewCA(t, "Unrelated CA")
	stack := newFixedStack(t, startServer(t, pki.serverConfig(false), echo))

	ch, err := NewWithStack(stack)
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.SetRootCACert(stranger.CertPEM))
	err = ch.Connect(context.Background(), testHost, stack.port)
	require.ErrorIs(t, err, ErrCertificateVerification)
	assert.Equal(t, StateFailed, ch.State())

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.True(t, e.Flags.Has(cert.FlagNotTrusted))

	_, err = ch.Send([]byte("x"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConnectWithoutRootCATouchesNoTransport(t *testing.T) {
	sock := mocks.NewMockSocket(t)

	ch, err := New(WithSocket(sock))
	require.NoError(t, err)

	err = ch.Connect(context.Background(), testHost, 443)
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, cert.ErrNoRootCA)
	assert.Equal(t, CodeConfiguration, Code(err))
	assert.Equal(t, StateFailed, ch.State())

	require.NoError(t, ch.Close())
}

func TestConnectIncompleteClientPair(t *testing.T) {
	pki := newTestPKI(t)
	sock := mocks.NewMockSocket(t)

	ch, err := New(WithSocket(sock))
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
	require.NoError(t, ch.SetClientCertKey(pki.client.CertPEM, nil))

	err = ch.Connect(context.Background(), testHost, 443)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, cert.ErrIncompleteKeyPair)
	assert.Equal(t, StateFailed, ch.State())

	err = ch.Connect(context.Background(), "", 443)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, StateFailed, ch.State())
}

func TestPeerCloseIsSticky(t *testing.T) {
	pki := newTestPKI(t)
	stack := newFixedStack(t, startServer(t, pki.serverConfig(false), func(conn net.Conn) {
		buf := make([]byte, 5)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		_, _ = conn.Write([]byte("bye"))
		// The deferred Close sends close_notify.
	}))

	ch, err := NewWithStack(stack)
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
	require.NoError(t, ch.Connect(context.Background(), testHost, stack.port))

	_, err = ch.Send([]byte("hello"))
	require.NoError(t, err)

	var got bytes.Buffer
	buf := make([]byte, 64)
	for {
		n, err := ch.Recv(buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got.Write(buf[:n])
	}
	assert.Equal(t, "bye", got.String())

	for range 3 {
		n, err := ch.Recv(buf)
		assert.NoError(t, err)
		assert.Zero(t, n)
	}

	n, err := ch.Read(buf)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestConnectCloseCyclesReleaseBundles(t *testing.T) {
	pki := newTestPKI(t)
	stranger := certtest.NewCA(t, "Unrelated CA")
	stack := newFixedStack(t, startServer(t, pki.serverConfig(false), echo))
	m := metrics.New()

	for i := range 6 {
		ch, err := NewWithStack(stack, WithMetrics(m))
		require.NoError(t, err)

		if i%2 == 1 {
			require.NoError(t, ch.SetRootCACert(stranger.CertPEM))
			require.Error(t, ch.Connect(context.Background(), testHost, stack.port))
			require.Equal(t, StateFailed, ch.State())
		}

		// A failed channel can connect again.
		require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
		require.NoError(t, ch.Connect(context.Background(), testHost, stack.port))
		require.NoError(t, ch.Close())
		require.NoError(t, ch.Close())
	}

	reg := m.Registry()
	initialized := gather(t, reg, "tlssocket_bundles_initialized_total")
	assert.Equal(t, 9.0, initialized)
	assert.Equal(t, initialized, gather(t, reg, "tlssocket_bundles_torn_down_total"))
	assert.Zero(t, gather(t, reg, "tlssocket_bundles_live"))
}

// throttledSocket accepts at most limit bytes per Send.
type throttledSocket struct {
	*socket.TCPSocket
	limit int
	sends int
}

func (s *throttledSocket) Send(p []byte) (int, error) {
	s.sends++
	if len(p) > s.limit {
		p = p[:s.limit]
	}
	return s.TCPSocket.Send(p)
}

func TestLargeSendOverThrottledTransport(t *testing.T) {
	pki := newTestPKI(t)
	stack := newFixedStack(t, startServer(t, pki.serverConfig(false), echo))
	sock := &throttledSocket{TCPSocket: socket.NewTCPSocket(), limit: 1000}

	ch, err := NewWithStack(stack, WithSocket(sock))
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
	require.NoError(t, ch.Connect(context.Background(), testHost, stack.port))

	payload := bytes.Repeat([]byte("0123456789"), 1000)
	sendsBefore := sock.sends
	n, err := ch.Send(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.GreaterOrEqual(t, sock.sends-sendsBefore, 10)

	got := make([]byte, len(payload))
	_, err = io.ReadFull(ch, got)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// stallingSocket reports would-block for the next stalls sends.
type stallingSocket struct {
	*socket.TCPSocket
	stalls int
}

func (s *stallingSocket) Send(p []byte) (int, error) {
	if s.stalls > 0 {
		s.stalls--
		return 0, socket.ErrWouldBlock
	}
	return s.TCPSocket.Send(p)
}

func TestSendStalledTransportFailsSession(t *testing.T) {
	pki := newTestPKI(t)
	stack := newFixedStack(t, startServer(t, pki.serverConfig(false), echo))
	sock := &stallingSocket{TCPSocket: socket.NewTCPSocket()}
	factory := engine.NewFactory(
		engine.WithRetryBudget(3),
		engine.WithBackoff(engine.BackoffConfig{Initial: time.Microsecond}),
	)

	ch, err := NewWithStack(stack, WithSocket(sock), WithEngineFactory(factory))
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
	require.NoError(t, ch.Connect(context.Background(), testHost, stack.port))

	sock.stalls = 10
	n, err := ch.Send([]byte("hello"))
	require.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, engine.ErrRetryExhausted)
	assert.Equal(t, int(socket.ErrTimeout), Code(err))
	assert.NotEqual(t, int(socket.ErrWouldBlock), Code(err))
	assert.Zero(t, n)
	assert.Equal(t, StateFailed, ch.State())

	// The session is gone even once the transport drains.
	sock.stalls = 0
	_, err = ch.Send([]byte("hello"))
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = ch.Recv(make([]byte, 5))
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, ch.Connect(context.Background(), testHost, stack.port))
	_, err = ch.Send([]byte("again"))
	require.NoError(t, err)

	// An empty buffer reads nothing and is not a shutdown.
	n, err = ch.Recv(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, StateEstablished, ch.State())

	got := make([]byte, 5)
	_, err = io.ReadFull(ch, got)
	require.NoError(t, err)
	assert.Equal(t, "again", string(got))
	assert.Equal(t, int32(2), stack.dials.Load())
}

func TestChannelStateErrors(t *testing.T) {
	pki := newTestPKI(t)
	stack := newFixedStack(t, startServer(t, pki.serverConfig(false), echo))

	ch, err := NewWithStack(stack)
	require.NoError(t, err)

	_, err = ch.Send([]byte("x"))
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, CodeInvalidState, Code(err))
	_, err = ch.Recv(make([]byte, 1))
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
	require.NoError(t, ch.Connect(context.Background(), testHost, stack.port))

	assert.ErrorIs(t, ch.SetRootCACert(pki.ca.CertPEM), ErrInvalidState)
	assert.ErrorIs(t, ch.SetClientCertKey(nil, nil), ErrInvalidState)

	err = ch.Connect(context.Background(), testHost, stack.port)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, CodeAlreadyConnected, Code(err))

	state := ch.ConnectionState()
	assert.True(t, state.HandshakeComplete)
	assert.GreaterOrEqual(t, state.Version, uint16(tls.VersionTLS12))

	require.NoError(t, ch.Close())
	assert.Equal(t, StateClosed, ch.State())
	require.NoError(t, ch.Close())

	_, err = ch.Send([]byte("x"))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, ch.Connect(context.Background(), testHost, stack.port), ErrInvalidState)
	assert.Equal(t, tls.ConnectionState{}, ch.ConnectionState())
}

func TestConnectWithCredentialsMutualTLS(t *testing.T) {
	pki := newTestPKI(t)
	stack := newFixedStack(t, startServer(t, pki.serverConfig(true), echo))

	ch, err := NewWithStack(stack, WithHandshakeTimeout(5*time.Second), WithIOTimeout(5*time.Second))
	require.NoError(t, err)
	defer ch.Close()

	err = ch.ConnectWithCredentials(context.Background(), testHost, stack.port,
		pki.ca.CertPEM, pki.client.CertPEM, pki.client.KeyPEM)
	require.NoError(t, err)

	_, err = ch.Write([]byte("ping"))
	require.NoError(t, err)
	got := make([]byte, 4)
	_, err = io.ReadFull(ch, got)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(got))
}

func TestProtocolEvents(t *testing.T) {
	pki := newTestPKI(t)
	stack := newFixedStack(t, startServer(t, pki.serverConfig(false), echo))
	rec := &recordingLogger{}

	ch, err := NewWithStack(stack, WithProtocolLogger(rec), WithPayloadCapture(16))
	require.NoError(t, err)

	require.NoError(t, ch.SetRootCACert(pki.ca.CertPEM))
	require.NoError(t, ch.Connect(context.Background(), testHost, stack.port))
	connID := ch.ConnectionID()
	require.NotEmpty(t, connID)

	_, err = ch.Send(bytes.Repeat([]byte{'a'}, 64))
	require.NoError(t, err)
	require.NoError(t, ch.Close())

	var states []string
	var handshake *log.HandshakeEvent
	var recordOut *log.IOEvent
	transportOut := 0
	for _, ev := range rec.all() {
		assert.Equal(t, connID, ev.ConnectionID)
		switch {
		case ev.StateChange != nil:
			states = append(states, ev.StateChange.NewState)
		case ev.Handshake != nil:
			handshake = ev.Handshake
		case ev.IO != nil && ev.Layer == log.LayerRecord && ev.Direction == log.DirectionOut:
			recordOut = ev.IO
		case ev.IO != nil && ev.Layer == log.LayerTransport && ev.Direction == log.DirectionOut:
			transportOut++
		}
	}

	assert.Equal(t, []string{
		StateTransportConnected.String(),
		StateHandshakeInProgress.String(),
		StateEstablished.String(),
		StateClosed.String(),
	}, states)
	require.NotNil(t, handshake)
	assert.GreaterOrEqual(t, handshake.Version, uint16(tls.VersionTLS12))
	assert.Contains(t, handshake.PeerIssuer, "Test Root CA")
	require.NotNil(t, recordOut)
	assert.Equal(t, 64, recordOut.Size)
	assert.Len(t, recordOut.Data, 16)
	assert.True(t, recordOut.Truncated)
	assert.Positive(t, transportOut)
}

func TestNewWithStackOpenFailure(t *testing.T) {
	sock := mocks.NewMockSocket(t)
	stack := socket.NewNetStack()
	sock.EXPECT().Open(stack).Return(socket.ErrAlready).Once()

	ch, err := NewWithStack(stack, WithSocket(sock))
	require.ErrorIs(t, err, ErrTransport)
	assert.Nil(t, ch)
	assert.Equal(t, int(socket.ErrAlready), Code(err))
}
