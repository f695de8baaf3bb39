package cert

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names used by a credential directory.
const (
	RootCAFile     = "root-ca.pem"
	ClientCertFile = "client.pem"
	ClientKeyFile  = "client.key"
)

// CredentialPaths names the PEM files that make up a set of credentials.
// Empty client paths mean no client certificate.
type CredentialPaths struct {
	RootCA     string
	ClientCert string
	ClientKey  string
}

// DirPaths returns the conventional credential paths inside dir.
func DirPaths(dir string) CredentialPaths {
	return CredentialPaths{
		RootCA:     filepath.Join(dir, RootCAFile),
		ClientCert: filepath.Join(dir, ClientCertFile),
		ClientKey:  filepath.Join(dir, ClientKeyFile),
	}
}

// Load reads the files into a Credentials value. The root CA is required;
// the client pair is read only when both paths are set.
func (p CredentialPaths) Load() (*Credentials, error) {
	if p.RootCA == "" {
		return nil, ErrNoRootCA
	}
	if (p.ClientCert == "") != (p.ClientKey == "") {
		return nil, ErrIncompleteKeyPair
	}

	creds := &Credentials{}
	rootCA, err := ReadPEMFile(p.RootCA)
	if err != nil {
		return nil, fmt.Errorf("root CA: %w", err)
	}
	creds.SetRootCA(rootCA)

	if p.ClientCert == "" {
		return creds, nil
	}
	certPEM, err := ReadPEMFile(p.ClientCert)
	if err != nil {
		return nil, fmt.Errorf("client certificate: %w", err)
	}
	keyPEM, err := ReadPEMFile(p.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("client key: %w", err)
	}
	creds.SetClientCertKey(certPEM, keyPEM)
	return creds, nil
}

// Save writes the credentials to dir using the conventional file names.
// The private key is written with owner-only permissions.
func Save(dir string, creds *Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	paths := DirPaths(dir)
	if err := os.WriteFile(paths.RootCA, trimPEM(creds.RootCA), 0644); err != nil {
		return err
	}
	if !creds.HasClientCert() {
		return nil
	}
	if err := os.WriteFile(paths.ClientCert, trimPEM(creds.ClientCert), 0644); err != nil {
		return err
	}
	return os.WriteFile(paths.ClientKey, trimPEM(creds.ClientKey), 0600)
}
