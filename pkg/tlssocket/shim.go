package tlssocket

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/mash-protocol/tlssocket/pkg/engine"
	"github.com/mash-protocol/tlssocket/pkg/log"
	"github.com/mash-protocol/tlssocket/pkg/metrics"
	"github.com/mash-protocol/tlssocket/pkg/socket"
)

// shim is the BIO pair the TLS session uses to move raw bytes over the
// channel's transport socket.
type shim struct {
	ch *Channel

	// lastErr is the most recent hard transport failure.
	lastErr error
}

// Send implements engine.BIO.
func (s *shim) Send(p []byte) (int, error) {
	n, err := s.ch.sock.Send(p)
	if n > 0 {
		s.ch.logIO(log.DirectionOut, log.LayerTransport, p[:n])
		s.ch.opts.metrics.RecordBytes(metrics.DirectionOut, metrics.LayerTransport, n)
	}
	if err == nil {
		return n, nil
	}
	if errors.Is(err, socket.ErrWouldBlock) {
		return n, engine.ErrWantWrite
	}
	s.lastErr = err
	s.ch.debugLog("transport send failed", "error", err)
	return n, fmt.Errorf("%w: %w", engine.ErrIOFatal, err)
}

// Recv implements engine.BIO.
func (s *shim) Recv(p []byte) (int, error) {
	n, err := s.ch.sock.Recv(p)
	if err != nil {
		if errors.Is(err, socket.ErrWouldBlock) {
			return 0, engine.ErrWantRead
		}
		s.lastErr = err
		s.ch.debugLog("transport recv failed", "error", err)
		return 0, fmt.Errorf("%w: %w", engine.ErrIOFatal, err)
	}
	if n == 0 && len(p) > 0 {
		s.ch.debugLog("transport end of stream")
		return 0, io.EOF
	}
	s.ch.logIO(log.DirectionIn, log.LayerTransport, p[:n])
	s.ch.opts.metrics.RecordBytes(metrics.DirectionIn, metrics.LayerTransport, n)
	return n, nil
}

// LocalAddr reports the socket's local address when it exposes one.
func (s *shim) LocalAddr() net.Addr {
	if a, ok := s.ch.sock.(interface{ LocalAddr() net.Addr }); ok {
		return a.LocalAddr()
	}
	return nil
}

// RemoteAddr reports the socket's peer address when it exposes one.
func (s *shim) RemoteAddr() net.Addr {
	if a, ok := s.ch.sock.(interface{ RemoteAddr() net.Addr }); ok {
		return a.RemoteAddr()
	}
	return nil
}

var _ engine.BIO = (*shim)(nil)
