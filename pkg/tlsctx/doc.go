// Package tlsctx owns the cryptographic state behind one TLS client session.
//
// A Bundle holds, in creation order: the entropy source, the deterministic
// random bit generator seeded from it, the certificate holders, the session
// configuration and the session itself. Initialize creates all of them,
// Configure fills them from a set of credentials and binds the session to a
// BIO, and Teardown releases them in reverse order. A Bundle can be
// initialized again after a teardown.
//
// A Bundle is not safe for concurrent use.
package tlsctx
