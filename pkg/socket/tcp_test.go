package socket

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoListener accepts connections and echoes everything back.
func echoListener(t *testing.T) (host string, port uint16) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.Copy(conn, conn)
			}()
		}
	}()
	return splitAddr(t, ln.Addr())
}

func splitAddr(t *testing.T, addr net.Addr) (string, uint16) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr.String())
	require.NoError(t, err)
	port, err := strconv.ParseUint(portStr, 10, 16)
	require.NoError(t, err)
	return host, uint16(port)
}

func TestTCPSocketLifecycle(t *testing.T) {
	host, port := echoListener(t)

	s := NewTCPSocket()
	assert.ErrorIs(t, s.Connect(context.Background(), host, port), ErrNoSocket)
	assert.ErrorIs(t, s.Open(nil), ErrParameter)

	require.NoError(t, s.Open(NewNetStack()))
	assert.ErrorIs(t, s.Open(NewNetStack()), ErrAlready)
	assert.ErrorIs(t, s.Connect(context.Background(), "", port), ErrParameter)

	require.NoError(t, s.Connect(context.Background(), host, port))
	assert.ErrorIs(t, s.Connect(context.Background(), host, port), ErrIsConnected)
	assert.NotNil(t, s.LocalAddr())
	assert.NotNil(t, s.RemoteAddr())

	n, err := s.Send([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 16)
	got := 0
	for got < 5 {
		n, err = s.Recv(buf[got:])
		require.NoError(t, err)
		got += n
	}
	assert.Equal(t, "hello", string(buf[:got]))

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), ErrNoSocket)
	assert.Nil(t, s.RemoteAddr())

	// A closed socket can be opened again.
	require.NoError(t, s.Open(NewNetStack()))
	require.NoError(t, s.Close())
}

func TestTCPSocketUnconnected(t *testing.T) {
	s := NewTCPSocket()
	_, err := s.Send([]byte("x"))
	assert.ErrorIs(t, err, ErrNoSocket)
	_, err = s.Recv(make([]byte, 1))
	assert.ErrorIs(t, err, ErrNoSocket)
}

func TestTCPSocketRecvEOF(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	host, port := splitAddr(t, ln.Addr())
	s := NewTCPSocket()
	require.NoError(t, s.Open(NewNetStack()))
	defer s.Close()
	require.NoError(t, s.Connect(context.Background(), host, port))

	n, err := s.Recv(make([]byte, 8))
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTCPSocketNonBlockingRecv(t *testing.T) {
	host, port := echoListener(t)

	s := NewTCPSocket()
	s.SetBlocking(false)
	require.NoError(t, s.Open(NewNetStack()))
	defer s.Close()
	require.NoError(t, s.Connect(context.Background(), host, port))

	_, err := s.Recv(make([]byte, 8))
	assert.ErrorIs(t, err, ErrWouldBlock)
	assert.Equal(t, ErrWouldBlock, CodeOf(err))
}

func TestTCPSocketRecvTimeout(t *testing.T) {
	host, port := echoListener(t)

	s := NewTCPSocket()
	s.SetTimeout(20 * time.Millisecond)
	require.NoError(t, s.Open(NewNetStack()))
	defer s.Close()
	require.NoError(t, s.Connect(context.Background(), host, port))

	_, err := s.Recv(make([]byte, 8))
	require.Error(t, err)
	assert.Equal(t, ErrTimeout, CodeOf(err))
}

func TestTCPSocketConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port := splitAddr(t, ln.Addr())
	ln.Close()

	s := NewTCPSocket()
	require.NoError(t, s.Open(NewNetStack()))
	defer s.Close()

	err = s.Connect(context.Background(), host, port)
	require.Error(t, err)
	assert.Equal(t, ErrNoConnection, CodeOf(err))
}

type staticResolver struct {
	addrs []string
	err   error
	hosts []string
}

func (r *staticResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	r.hosts = append(r.hosts, host)
	return r.addrs, r.err
}

func TestNetStackLocalResolver(t *testing.T) {
	host, port := echoListener(t)
	resolver := &staticResolver{addrs: []string{host}}
	stack := &NetStack{LocalResolver: resolver}

	conn, err := stack.DialContext(context.Background(), "tcp", net.JoinHostPort("meter.local", strconv.Itoa(int(port))))
	require.NoError(t, err)
	conn.Close()
	assert.Equal(t, []string{"meter.local"}, resolver.hosts)

	// Non-local names bypass the resolver.
	conn, err = stack.DialContext(context.Background(), "tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	require.NoError(t, err)
	conn.Close()
	assert.Len(t, resolver.hosts, 1)
}

func TestNetStackLocalResolverErrors(t *testing.T) {
	stack := &NetStack{LocalResolver: &staticResolver{}}
	_, err := stack.DialContext(context.Background(), "tcp", "meter.local:8883")
	assert.ErrorIs(t, err, ErrNoAddress)

	boom := errors.New("boom")
	stack = &NetStack{LocalResolver: &staticResolver{err: boom}}
	_, err = stack.DialContext(context.Background(), "tcp", "meter.local:8883")
	assert.ErrorIs(t, err, boom)
}

func TestIsLocalHost(t *testing.T) {
	assert.True(t, IsLocalHost("meter.local"))
	assert.True(t, IsLocalHost("Meter.LOCAL."))
	assert.False(t, IsLocalHost("example.com"))
	assert.False(t, IsLocalHost("local"))
}
