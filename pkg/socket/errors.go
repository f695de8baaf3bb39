package socket

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// Error is a transport error code. Zero and positive values are reserved for
// success and byte counts; every defined error is negative.
type Error int

// Transport error codes.
const (
	ErrWouldBlock        Error = -3001 // no data moved, try again later
	ErrUnsupported       Error = -3002 // operation not supported by the socket
	ErrParameter         Error = -3003 // invalid argument
	ErrNoConnection      Error = -3004 // not connected / connection refused
	ErrNoSocket          Error = -3005 // socket not opened on a stack
	ErrNoAddress         Error = -3006 // no usable address for host
	ErrNoMemory          Error = -3007 // resource exhaustion
	ErrDNSFailure        Error = -3009 // name resolution failed
	ErrDeviceError       Error = -3012 // unclassified stack failure
	ErrInProgress        Error = -3013 // operation already in progress
	ErrAlready           Error = -3014 // socket already opened
	ErrIsConnected       Error = -3015 // socket already connected
	ErrConnectionLost    Error = -3016 // peer reset or broken pipe
	ErrConnectionTimeout Error = -3017 // connect timed out
	ErrAddressInUse      Error = -3018
	ErrTimeout           Error = -3019 // blocking call exceeded its timeout
)

var errorText = map[Error]string{
	ErrWouldBlock:        "operation would block",
	ErrUnsupported:       "unsupported operation",
	ErrParameter:         "invalid parameter",
	ErrNoConnection:      "no connection",
	ErrNoSocket:          "socket not open",
	ErrNoAddress:         "no address",
	ErrNoMemory:          "out of memory",
	ErrDNSFailure:        "DNS failure",
	ErrDeviceError:       "device error",
	ErrInProgress:        "operation in progress",
	ErrAlready:           "socket already open",
	ErrIsConnected:       "socket already connected",
	ErrConnectionLost:    "connection lost",
	ErrConnectionTimeout: "connection timeout",
	ErrAddressInUse:      "address in use",
	ErrTimeout:           "timeout",
}

// Error implements the error interface.
func (e Error) Error() string {
	if s, ok := errorText[e]; ok {
		return "socket: " + s
	}
	return "socket: unknown error"
}

// Code returns the numeric code.
func (e Error) Code() int {
	return int(e)
}

// CodeOf extracts the transport code carried by err.
// It returns 0 for nil and ErrDeviceError for errors without a code.
func CodeOf(err error) Error {
	if err == nil {
		return 0
	}
	var code Error
	if errors.As(err, &code) {
		return code
	}
	return ErrDeviceError
}

// FromError classifies a Go network error into a transport code.
func FromError(err error) Error {
	if err == nil {
		return 0
	}

	var code Error
	if errors.As(err, &code) {
		return code
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrDNSFailure
	}

	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return ErrNoAddress
	}

	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.DeadlineExceeded):
		return ErrConnectionTimeout
	case errors.Is(err, net.ErrClosed):
		return ErrNoSocket
	case errors.Is(err, syscall.EAGAIN):
		return ErrWouldBlock
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH):
		return ErrNoConnection
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF):
		return ErrConnectionLost
	case errors.Is(err, syscall.ETIMEDOUT):
		return ErrConnectionTimeout
	case errors.Is(err, syscall.EADDRINUSE):
		return ErrAddressInUse
	case errors.Is(err, syscall.ENOMEM), errors.Is(err, syscall.ENOBUFS):
		return ErrNoMemory
	}
	return ErrDeviceError
}
