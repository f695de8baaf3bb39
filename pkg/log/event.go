package log

import (
	"time"
)

// MaxCaptureSize is the maximum number of payload bytes kept per IO event.
const MaxCaptureSize = 4096

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies one connect attempt (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates data flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (host:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// ServerName is the host name the peer certificate is checked against.
	ServerName string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	IO          *IOEvent          `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Handshake   *HandshakeEvent   `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the peer.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to the peer.
	DirectionOut Direction = 1
	// DirectionLocal indicates an event without data flow.
	DirectionLocal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where an event was captured.
type Layer uint8

const (
	// LayerTransport is raw TLS bytes moved by the transport socket.
	LayerTransport Layer = 0
	// LayerRecord is decrypted application data.
	LayerRecord Layer = 1
	// LayerChannel is the channel state machine.
	LayerChannel Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerRecord:
		return "RECORD"
	case LayerChannel:
		return "CHANNEL"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryIO indicates bytes moved.
	CategoryIO Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryHandshake indicates a completed handshake.
	CategoryHandshake Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryIO:
		return "IO"
	case CategoryState:
		return "STATE"
	case CategoryHandshake:
		return "HANDSHAKE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// IOEvent captures bytes moved at the transport or record layer.
type IOEvent struct {
	// Size is the number of bytes moved.
	Size int `cbor:"1,keyasint"`

	// Data is the captured bytes (may be truncated or omitted).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewIOEvent describes data, keeping at most limit bytes of it. A limit of
// zero records the size only.
func NewIOEvent(data []byte, limit int) *IOEvent {
	ev := &IOEvent{Size: len(data)}
	if limit <= 0 || len(data) == 0 {
		return ev
	}
	if len(data) > limit {
		data = data[:limit]
		ev.Truncated = true
	}
	ev.Data = append([]byte(nil), data...)
	return ev
}

// StateChangeEvent captures channel lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// HandshakeEvent captures the parameters of an established session.
type HandshakeEvent struct {
	// Version is the negotiated TLS version.
	Version uint16 `cbor:"1,keyasint"`

	// CipherSuite is the negotiated cipher suite ID.
	CipherSuite uint16 `cbor:"2,keyasint"`

	// ALPN is the negotiated application protocol.
	ALPN string `cbor:"3,keyasint,omitempty"`

	// PeerSubject is the subject of the peer leaf certificate.
	PeerSubject string `cbor:"4,keyasint,omitempty"`

	// PeerIssuer is the issuer of the peer leaf certificate.
	PeerIssuer string `cbor:"5,keyasint,omitempty"`

	// Resumed reports session resumption.
	Resumed bool `cbor:"6,keyasint,omitempty"`

	// Duration of the handshake, stored as nanoseconds.
	Duration time.Duration `cbor:"7,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the negative error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`

	// VerifyFlags carries certificate verification flags, if any.
	VerifyFlags uint32 `cbor:"5,keyasint,omitempty"`
}
