package cert

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// PEM encoding/decoding errors.
var (
	ErrInvalidPEM  = errors.New("invalid PEM data")
	ErrInvalidCert = errors.New("invalid certificate")
	ErrInvalidKey  = errors.New("invalid private key")
	ErrKeyMismatch = errors.New("private key does not match certificate")
	ErrReadFile    = errors.New("failed to read file")
)

// PEM block types.
const (
	blockCertificate = "CERTIFICATE"
	blockECKey       = "EC PRIVATE KEY"
	blockRSAKey      = "RSA PRIVATE KEY"
	blockPKCS8Key    = "PRIVATE KEY"
)

// trimPEM drops the NUL terminator C-style callers append to PEM text.
func trimPEM(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// EncodeCertPEM encodes an X.509 certificate to PEM format.
func EncodeCertPEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  blockCertificate,
		Bytes: cert.Raw,
	})
}

// DecodeCertPEM decodes the first certificate in data.
func DecodeCertPEM(data []byte) (*x509.Certificate, error) {
	certs, err := DecodeCertsPEM(data)
	if err != nil {
		return nil, err
	}
	return certs[0], nil
}

// DecodeCertsPEM decodes every CERTIFICATE block in data, in order.
// Other block types are skipped. It fails if no certificate is found or
// any certificate is malformed.
func DecodeCertsPEM(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	rest := trimPEM(data)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != blockCertificate {
			continue
		}
		c, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: certificate %d: %w", ErrInvalidCert, len(certs), err)
		}
		certs = append(certs, c)
	}
	if len(certs) == 0 {
		return nil, ErrInvalidPEM
	}
	return certs, nil
}

// CertPool builds a trust pool from every certificate in data.
func CertPool(data []byte) (*x509.CertPool, error) {
	certs, err := DecodeCertsPEM(data)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	for _, c := range certs {
		pool.AddCert(c)
	}
	return pool, nil
}

// EncodeKeyPEM encodes a private key to PEM. ECDSA keys use SEC 1, RSA keys
// PKCS #1 and everything else PKCS #8.
func EncodeKeyPEM(key crypto.Signer) ([]byte, error) {
	var block *pem.Block
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		der, err := x509.MarshalECPrivateKey(k)
		if err != nil {
			return nil, err
		}
		block = &pem.Block{Type: blockECKey, Bytes: der}
	case *rsa.PrivateKey:
		block = &pem.Block{Type: blockRSAKey, Bytes: x509.MarshalPKCS1PrivateKey(k)}
	default:
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return nil, err
		}
		block = &pem.Block{Type: blockPKCS8Key, Bytes: der}
	}
	return pem.EncodeToMemory(block), nil
}

// DecodeKeyPEM decodes the first private key in data. SEC 1 EC, PKCS #1 RSA
// and PKCS #8 keys are accepted; other blocks such as EC PARAMETERS are
// skipped.
func DecodeKeyPEM(data []byte) (crypto.Signer, error) {
	rest := trimPEM(data)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, ErrInvalidPEM
		}

		var (
			key any
			err error
		)
		switch block.Type {
		case blockECKey:
			key, err = x509.ParseECPrivateKey(block.Bytes)
		case blockRSAKey:
			key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		case blockPKCS8Key:
			key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported key type %T", ErrInvalidKey, key)
		}
		return signer, nil
	}
}

// ParseKeyPair parses a certificate chain and its private key into a
// tls.Certificate. The key must match the first certificate.
func ParseKeyPair(certPEM, keyPEM []byte) (tls.Certificate, error) {
	certs, err := DecodeCertsPEM(certPEM)
	if err != nil {
		return tls.Certificate{}, err
	}
	key, err := DecodeKeyPEM(keyPEM)
	if err != nil {
		return tls.Certificate{}, err
	}

	pub, ok := key.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(certs[0].PublicKey) {
		return tls.Certificate{}, ErrKeyMismatch
	}

	chain := make([][]byte, len(certs))
	for i, c := range certs {
		chain[i] = c.Raw
	}
	return tls.Certificate{
		Certificate: chain,
		PrivateKey:  key,
		Leaf:        certs[0],
	}, nil
}

// ReadPEMFile reads a PEM file into memory.
func ReadPEMFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	return data, nil
}
