package tlssocket

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/tlssocket/pkg/cert/certtest"
	"github.com/mash-protocol/tlssocket/pkg/log"
)

const testHost = "example.test"

// fixedStack dials one address whatever host it is asked for, so test
// servers on loopback can be reached under any name.
type fixedStack struct {
	addr  string
	port  uint16
	dials atomic.Int32
}

func newFixedStack(t testing.TB, addr string) *fixedStack {
	t.Helper()
	_, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.ParseUint(portStr, 10, 16)
	require.NoError(t, err)
	return &fixedStack{addr: addr, port: uint16(port)}
}

func (s *fixedStack) DialContext(ctx context.Context, network, _ string) (net.Conn, error) {
	s.dials.Add(1)
	var d net.Dialer
	return d.DialContext(ctx, network, s.addr)
}

// startServer runs a TLS server on loopback that hands each connection to
// handle.
func startServer(t testing.TB, cfg *tls.Config, handle func(net.Conn)) string {
	t.Helper()
	ln, err := tls.Listen("tcp", "127.0.0.1:0", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handle(conn)
			}()
		}
	}()
	return ln.Addr().String()
}

func echo(conn net.Conn) {
	_, _ = io.Copy(conn, conn)
}

// testPKI is a root CA with a server certificate for testHost and a client
// certificate.
type testPKI struct {
	ca     *certtest.CA
	server *certtest.Leaf
	client *certtest.Leaf
}

func newTestPKI(t testing.TB) *testPKI {
	t.Helper()
	ca := certtest.NewCA(t, "Test Root CA")
	return &testPKI{
		ca:     ca,
		server: ca.Server(t, testHost),
		client: ca.Client(t, "device-1"),
	}
}

func (p *testPKI) serverConfig(requireClientCert bool) *tls.Config {
	cfg := &tls.Config{
		Certificates: []tls.Certificate{p.server.TLS},
		MinVersion:   tls.VersionTLS12,
	}
	if requireClientCert {
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = p.ca.Pool()
	}
	return cfg
}

// recordingLogger keeps every protocol event.
type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *recordingLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *recordingLogger) all() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

// gather returns the value of a single-series counter or gauge.
func gather(t testing.TB, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		return m.GetGauge().GetValue()
	}
	return 0
}
