package tlssocket

import (
	"errors"

	"github.com/mash-protocol/tlssocket/pkg/cert"
	"github.com/mash-protocol/tlssocket/pkg/socket"
)

// Error kinds. Match with errors.Is.
var (
	// ErrAllocation means the crypto context could not be created.
	ErrAllocation = errors.New("allocation failed")

	// ErrConfiguration means the channel is missing credentials or was
	// given inconsistent ones.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidState means the call is not allowed in the current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrCertificateParse means a PEM certificate or key could not be parsed.
	ErrCertificateParse = errors.New("certificate parse failed")

	// ErrCertificateVerification means the server certificate was rejected.
	ErrCertificateVerification = errors.New("certificate verification failed")

	// ErrHandshake means the handshake failed for a protocol reason.
	ErrHandshake = errors.New("handshake failed")

	// ErrTransport means the transport socket failed.
	ErrTransport = errors.New("transport error")

	// ErrProtocol means an established session hit a record-layer failure.
	ErrProtocol = errors.New("protocol error")
)

// Error codes. Transport errors carry the socket's own code instead.
const (
	CodeAllocation              = int(socket.ErrNoMemory)
	CodeConfiguration           = int(socket.ErrParameter)
	CodeInvalidState            = int(socket.ErrNoConnection)
	CodeAlreadyConnected        = int(socket.ErrIsConnected)
	CodeCertificateParse        = -0x2180
	CodeCertificateVerification = -0x2700
	CodeHandshake               = -0x7180
	CodeProtocol                = -0x7100
)

// Error describes a failed channel operation.
type Error struct {
	// Op is the operation: "connect", "send", "recv", "set credentials".
	Op string

	// Kind is one of the package error kinds.
	Kind error

	// Code is the negative error code.
	Code int

	// Flags holds the verification result when Kind is
	// ErrCertificateVerification.
	Flags cert.VerifyFlags

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := "tlssocket " + e.Op + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code returns the negative error code carried by err, or 0 for nil.
// Errors that did not come from a channel report socket.ErrDeviceError.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return int(socket.CodeOf(err))
}

func newError(op string, kind error, code int, err error) *Error {
	return &Error{Op: op, Kind: kind, Code: code, Err: err}
}

// transportError reports a socket failure with the socket's code.
func transportError(op string, err error) *Error {
	code := socket.CodeOf(err)
	return newError(op, ErrTransport, int(code), err)
}
