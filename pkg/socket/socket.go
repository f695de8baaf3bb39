package socket

import (
	"context"
	"net"
	"time"
)

// Stack is the network stack a socket is opened on.
// It mirrors the dialing surface of net.Dialer.
type Stack interface {
	// DialContext connects to address ("host:port") on the named network.
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Socket is a blocking, byte-oriented stream transport.
// Implemented by TCPSocket.
type Socket interface {
	// Open binds the socket to a network stack.
	Open(stack Stack) error

	// Connect establishes the stream to host:port.
	Connect(ctx context.Context, host string, port uint16) error

	// Send writes up to len(data) bytes and returns how many were accepted.
	// Partial sends are legal.
	Send(data []byte) (int, error)

	// Recv reads up to len(data) bytes. (0, nil) means the peer shut the
	// stream down in an orderly way.
	Recv(data []byte) (int, error)

	// Close releases the stream and unbinds the socket from its stack.
	Close() error
}

// TimeoutSetter is implemented by sockets whose blocking calls can be bounded.
type TimeoutSetter interface {
	// SetTimeout bounds each blocking call. Zero blocks indefinitely.
	SetTimeout(d time.Duration)
}

// Compile-time interface satisfaction checks.
var (
	_ Socket        = (*TCPSocket)(nil)
	_ TimeoutSetter = (*TCPSocket)(nil)
	_ Stack         = (*NetStack)(nil)
	_ HostResolver  = (*MDNSResolver)(nil)
)
