// Package tlssocket provides a client-only TLS channel over a byte-stream
// transport socket.
//
// A Channel wraps a socket.Socket and looks like one: Connect, Send, Recv and
// Close. Underneath, Connect runs a TLS handshake against the server named by
// the host argument, validating its certificate chain against a configured
// root CA, and Send/Recv move application data as encrypted records.
//
// # Lifecycle
//
//	ch, err := tlssocket.NewWithStack(socket.NewNetStack())
//	if err != nil {
//		return err
//	}
//	defer ch.Close()
//
//	ch.SetRootCACert(rootPEM)
//	if err := ch.Connect(ctx, "broker.example.com", 8883); err != nil {
//		return err
//	}
//	n, err := ch.Send(payload)
//
// The channel moves through the states Unopened, TransportConnected,
// HandshakeInProgress and Established. A failed Connect leaves it in Failed
// with the transport closed and the crypto context released; Connect may be
// called again. A Send or Recv error other than would-block also leaves it
// Failed, with the transport still open until Close or the next Connect.
// Close is idempotent and leaves it in Closed.
//
// # Errors
//
// Every failure is an *Error whose Kind is one of the package sentinels
// (ErrConfiguration, ErrCertificateVerification, ErrHandshake, ...) and whose
// Code is a negative integer. Transport failures report the transport's own
// code. Use errors.Is for the kind and Code for the number.
//
// # Concurrency
//
// A Channel is used by one goroutine at a time. It starts no goroutines of
// its own on the data path.
package tlssocket
