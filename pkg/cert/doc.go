// Package cert holds the credentials a TLS client channel presents and
// trusts, and the helpers to parse and inspect them.
//
// Credentials are kept as the PEM text the caller supplied. Parsing happens
// when a session is configured, so a malformed buffer is reported by the
// connect attempt that needs it.
package cert
