// Package log provides structured protocol capture for TLS channels.
//
// This package defines the Logger interface and Event types for capturing
// channel events at three layers: raw TLS bytes moved by the transport,
// decrypted application records, and channel lifecycle. It is separate from
// operational logging (slog): protocol capture is a complete
// machine-readable trace for debugging devices in the field.
//
// # Basic Usage
//
// A channel is given a Logger at construction:
//
//	// For development: log to console via slog
//	ch, _ := tlssocket.New(tlssocket.WithProtocolLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For production: write to a capture file
//	fl, _ := log.NewFileLogger("/var/log/device/tls.clog")
//	ch, _ := tlssocket.New(tlssocket.WithProtocolLogger(fl))
//
//	// Both: use MultiLogger
//	ch, _ := tlssocket.New(tlssocket.WithProtocolLogger(log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fl,
//	)))
//
// # Event Types
//
//   - IO: bytes moved through the transport or the record layer (IOEvent)
//   - State: channel state transitions (StateChangeEvent)
//   - Handshake: negotiated session parameters (HandshakeEvent)
//   - Error: failures with their numeric code (ErrorEventData)
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events. Reader streams them
// back, optionally through a Filter.
package log
