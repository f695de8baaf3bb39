package cert

import "errors"

// Credential errors.
var (
	ErrNoRootCA          = errors.New("root CA certificate not set")
	ErrIncompleteKeyPair = errors.New("client certificate and key must be set together")
)

// Credentials are the PEM buffers a client channel trusts and presents.
//
// The buffers are referenced, not copied. Callers must keep them valid and
// unmodified for as long as the credentials are in use.
type Credentials struct {
	// RootCA holds one or more trusted CA certificates.
	RootCA []byte

	// ClientCert holds the client certificate chain, leaf first.
	ClientCert []byte

	// ClientKey holds the private key for ClientCert.
	ClientKey []byte
}

// SetRootCA records the trusted root CA bundle.
func (c *Credentials) SetRootCA(pem []byte) {
	c.RootCA = pem
}

// SetClientCertKey records the client certificate and its private key.
func (c *Credentials) SetClientCertKey(certPEM, keyPEM []byte) {
	c.ClientCert = certPEM
	c.ClientKey = keyPEM
}

// HasRootCA reports whether a root CA is set.
func (c *Credentials) HasRootCA() bool {
	return len(trimPEM(c.RootCA)) > 0
}

// HasClientCert reports whether a client certificate and key are both set.
func (c *Credentials) HasClientCert() bool {
	return len(trimPEM(c.ClientCert)) > 0 && len(trimPEM(c.ClientKey)) > 0
}

// Validate checks that the credentials are complete enough to connect.
// It does not parse them.
func (c *Credentials) Validate() error {
	if !c.HasRootCA() {
		return ErrNoRootCA
	}
	hasCert := len(trimPEM(c.ClientCert)) > 0
	hasKey := len(trimPEM(c.ClientKey)) > 0
	if hasCert != hasKey {
		return ErrIncompleteKeyPair
	}
	return nil
}
