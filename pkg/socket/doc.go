// Package socket defines the byte-stream transport that a TLS channel is
// layered on, plus a TCP implementation bound to a network stack.
//
// # Error Convention
//
// Transport failures are reported as Error values: negative integer codes
// with one distinguished code, ErrWouldBlock, meaning "no data moved, try
// again later". Wrapped errors keep the code reachable through errors.As:
//
//	n, err := sock.Send(buf)
//	var code socket.Error
//	if errors.As(err, &code) && code == socket.ErrWouldBlock {
//	    // retry later
//	}
//
// A Recv that returns (0, nil) reports an orderly shutdown by the peer. It
// is never used to signal would-block.
//
// # Blocking Model
//
// Sockets block by default. SetTimeout bounds every blocking call, and
// SetBlocking(false) turns calls that cannot make progress into
// ErrWouldBlock. A Socket is not safe for concurrent use.
package socket
