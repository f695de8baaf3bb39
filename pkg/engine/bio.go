package engine

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// wouldBlockError is returned to crypto/tls when an established session has
// no record to read. It reports itself as a temporary net.Error so the TLS
// connection does not treat it as fatal.
type wouldBlockError struct{}

func (wouldBlockError) Error() string   { return ErrWantRead.Error() }
func (wouldBlockError) Timeout() bool   { return true }
func (wouldBlockError) Temporary() bool { return true }
func (wouldBlockError) Unwrap() error   { return ErrWantRead }

var _ net.Error = wouldBlockError{}

// bioAddr is reported when the BIO does not expose its own addresses.
type bioAddr struct{}

func (bioAddr) Network() string { return "bio" }
func (bioAddr) String() string  { return "bio" }

// bioConn presents a BIO as the net.Conn crypto/tls reads and writes.
type bioConn struct {
	bio    BIO
	opts   options
	closed atomic.Bool

	// blockReads makes Read wait out ErrWantRead. It is set while
	// handshaking, where crypto/tls treats every read error as fatal.
	blockReads atomic.Bool

	mu            sync.Mutex
	readDeadline  time.Time
	writeDeadline time.Time

	sleep func(time.Duration)
}

func newBIOConn(bio BIO, opts options) *bioConn {
	c := &bioConn{bio: bio, opts: opts, sleep: time.Sleep}
	c.blockReads.Store(true)
	return c
}

// retry tracks the waits spent within one Read or Write call.
type retry struct {
	backoff *Backoff
}

// reset starts the wait schedule over after data moved.
func (r *retry) reset() {
	if r.backoff != nil {
		r.backoff.Reset()
	}
}

// Read implements net.Conn.
func (c *bioConn) Read(p []byte) (int, error) {
	var r retry
	for {
		if c.closed.Load() {
			return 0, net.ErrClosed
		}

		n, err := c.bio.Recv(p)
		switch {
		case err == nil && n == 0 && len(p) > 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case errors.Is(err, io.EOF):
			return n, io.EOF
		case IsRetry(err):
			if !c.blockReads.Load() {
				return 0, wouldBlockError{}
			}
			if err := c.wait(&r, c.deadline(true)); err != nil {
				return 0, err
			}
		default:
			return n, err
		}
	}
}

// Write implements net.Conn. It returns only after all of p was accepted or
// the BIO failed.
func (c *bioConn) Write(p []byte) (int, error) {
	var r retry
	written := 0
	for written < len(p) {
		if c.closed.Load() {
			return written, net.ErrClosed
		}

		n, err := c.bio.Send(p[written:])
		if n > 0 {
			written += n
			r.reset()
		}
		switch {
		case err == nil && n > 0:
			continue
		case err == nil, IsRetry(err):
			// A send that accepted nothing is a would-block in disguise.
			if err := c.wait(&r, c.deadline(false)); err != nil {
				return written, err
			}
		default:
			return written, err
		}
	}
	return written, nil
}

// wait sleeps before the next retry, honoring the deadline and the budget.
func (c *bioConn) wait(r *retry, deadline time.Time) error {
	if r.backoff == nil {
		r.backoff = NewBackoff(c.opts.backoff)
	}
	if r.backoff.Attempts() >= c.opts.retryBudget {
		return fmt.Errorf("%w: %w", ErrIOFatal, ErrRetryExhausted)
	}

	d := r.backoff.Next()
	if !deadline.IsZero() {
		left := time.Until(deadline)
		if left <= 0 {
			return os.ErrDeadlineExceeded
		}
		if d > left {
			d = left
		}
	}
	c.sleep(d)
	return nil
}

func (c *bioConn) deadline(read bool) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if read {
		return c.readDeadline
	}
	return c.writeDeadline
}

// Close marks the conn closed. The transport belongs to the BIO owner.
func (c *bioConn) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *bioConn) LocalAddr() net.Addr {
	if a, ok := c.bio.(interface{ LocalAddr() net.Addr }); ok {
		if addr := a.LocalAddr(); addr != nil {
			return addr
		}
	}
	return bioAddr{}
}

func (c *bioConn) RemoteAddr() net.Addr {
	if a, ok := c.bio.(interface{ RemoteAddr() net.Addr }); ok {
		if addr := a.RemoteAddr(); addr != nil {
			return addr
		}
	}
	return bioAddr{}
}

func (c *bioConn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	c.writeDeadline = t
	return nil
}

func (c *bioConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	return nil
}

func (c *bioConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeadline = t
	return nil
}
