// Package engine defines the narrow control surface the channel needs from a
// TLS implementation and provides one backed by crypto/tls.
//
// An Engine never touches the network. Every record it produces or consumes
// travels through a BIO: a push/pull pair that the owner binds to its
// transport. A BIO reports progress as a byte count, a retry condition as
// ErrWantRead or ErrWantWrite, a transport failure as an error wrapping
// ErrIOFatal, and end of stream as io.EOF.
//
// # Retry model
//
// crypto/tls expects a net.Conn that either moves bytes or fails. The adapter
// between the two (see bioConn) re-invokes a BIO after partial sends until a
// record is flushed, and waits with bounded exponential backoff when the BIO
// asks for a retry during the handshake or while writing. Once the session is
// established, a read that cannot make progress returns ErrWantRead to the
// caller instead of waiting. The number of waits per call is bounded; running
// out of retries is reported as a transport failure wrapping
// ErrRetryExhausted.
package engine
