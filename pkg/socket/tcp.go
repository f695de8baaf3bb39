package socket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// nonBlockingWindow is how long a non-blocking call may wait for the kernel
// before it reports ErrWouldBlock. A deadline already in the past would make
// the runtime poller fail before attempting any I/O.
const nonBlockingWindow = time.Millisecond

// TCPSocket is a stream socket on top of a Stack.
type TCPSocket struct {
	stack    Stack
	conn     net.Conn
	timeout  time.Duration
	blocking bool
}

// NewTCPSocket creates an unopened, blocking TCP socket.
func NewTCPSocket() *TCPSocket {
	return &TCPSocket{blocking: true}
}

// Open binds the socket to stack.
func (s *TCPSocket) Open(stack Stack) error {
	if stack == nil {
		return ErrParameter
	}
	if s.stack != nil {
		return ErrAlready
	}
	s.stack = stack
	return nil
}

// SetTimeout bounds each blocking call. Zero blocks indefinitely.
func (s *TCPSocket) SetTimeout(d time.Duration) {
	s.timeout = d
}

// SetBlocking switches between blocking and non-blocking mode.
// In non-blocking mode calls that cannot make progress return ErrWouldBlock.
func (s *TCPSocket) SetBlocking(blocking bool) {
	s.blocking = blocking
}

// Connect dials host:port through the socket's stack.
func (s *TCPSocket) Connect(ctx context.Context, host string, port uint16) error {
	if s.stack == nil {
		return ErrNoSocket
	}
	if s.conn != nil {
		return ErrIsConnected
	}
	if host == "" {
		return ErrParameter
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	address := net.JoinHostPort(host, strconv.Itoa(int(port)))
	conn, err := s.stack.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("connect %s: %w: %w", address, FromError(err), err)
	}
	s.conn = conn
	return nil
}

// Send writes data to the stream. It may accept fewer bytes than offered.
func (s *TCPSocket) Send(data []byte) (int, error) {
	if s.conn == nil {
		return 0, ErrNoSocket
	}
	if len(data) == 0 {
		return 0, nil
	}

	_ = s.conn.SetWriteDeadline(s.deadline())
	n, err := s.conn.Write(data)
	if err == nil {
		return n, nil
	}

	code := s.classify(err)
	if code == ErrWouldBlock && n > 0 {
		return n, nil
	}
	if code == ErrWouldBlock {
		return 0, ErrWouldBlock
	}
	return n, fmt.Errorf("send: %w: %w", code, err)
}

// Recv reads from the stream. It returns (0, nil) once the peer has closed
// its side of the connection.
func (s *TCPSocket) Recv(data []byte) (int, error) {
	if s.conn == nil {
		return 0, ErrNoSocket
	}
	if len(data) == 0 {
		return 0, nil
	}

	_ = s.conn.SetReadDeadline(s.deadline())
	n, err := s.conn.Read(data)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF):
		return n, nil
	case n > 0:
		// Deliver what arrived; the error resurfaces on the next call.
		return n, nil
	}

	code := s.classify(err)
	if code == ErrWouldBlock {
		return 0, ErrWouldBlock
	}
	return 0, fmt.Errorf("recv: %w: %w", code, err)
}

// Close closes the stream and unbinds the socket from its stack.
// The socket can be opened again afterwards.
func (s *TCPSocket) Close() error {
	if s.stack == nil {
		return ErrNoSocket
	}
	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	s.stack = nil
	if err != nil {
		return fmt.Errorf("close: %w: %w", FromError(err), err)
	}
	return nil
}

// LocalAddr returns the local address of the stream, or nil when unconnected.
func (s *TCPSocket) LocalAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// RemoteAddr returns the peer address of the stream, or nil when unconnected.
func (s *TCPSocket) RemoteAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.RemoteAddr()
}

func (s *TCPSocket) deadline() time.Time {
	switch {
	case !s.blocking:
		return time.Now().Add(nonBlockingWindow)
	case s.timeout > 0:
		return time.Now().Add(s.timeout)
	default:
		return time.Time{}
	}
}

// classify maps an I/O error, turning deadline expiry into ErrWouldBlock
// when the socket is non-blocking.
func (s *TCPSocket) classify(err error) Error {
	code := FromError(err)
	if code == ErrTimeout && !s.blocking {
		return ErrWouldBlock
	}
	return code
}
