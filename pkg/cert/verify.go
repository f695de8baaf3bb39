package cert

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// VerifyFlags describes why a peer certificate was rejected. The bit values
// follow the verification result flags common to embedded TLS stacks so they
// can be reported to devices that expect them.
type VerifyFlags uint32

// Verification result flags.
const (
	FlagExpired     VerifyFlags = 0x01
	FlagRevoked     VerifyFlags = 0x02
	FlagCNMismatch  VerifyFlags = 0x04
	FlagNotTrusted  VerifyFlags = 0x08
	FlagMissing     VerifyFlags = 0x40
	FlagSkipVerify  VerifyFlags = 0x80
	FlagOther       VerifyFlags = 0x0100
	FlagFuture      VerifyFlags = 0x0200
	FlagKeyUsage    VerifyFlags = 0x0800
	FlagExtKeyUsage VerifyFlags = 0x1000
	FlagBadMD       VerifyFlags = 0x4000
)

var flagText = []struct {
	flag VerifyFlags
	text string
}{
	{FlagExpired, "The certificate validity has expired"},
	{FlagRevoked, "The certificate has been revoked"},
	{FlagCNMismatch, "The certificate Common Name (CN) does not match the expected CN"},
	{FlagNotTrusted, "The certificate is not correctly signed by the trusted CA"},
	{FlagMissing, "Certificate was missing"},
	{FlagSkipVerify, "Certificate verification was skipped"},
	{FlagOther, "Other reason (can be used by verify callback)"},
	{FlagFuture, "The certificate validity starts in the future"},
	{FlagKeyUsage, "Usage does not match the keyUsage extension"},
	{FlagExtKeyUsage, "Usage does not match the extendedKeyUsage extension"},
	{FlagBadMD, "The certificate is signed with an unacceptable hash"},
}

// Has reports whether all bits of f are set.
func (v VerifyFlags) Has(f VerifyFlags) bool {
	return v&f == f
}

// String renders one line per set flag.
func (v VerifyFlags) String() string {
	if v == 0 {
		return ""
	}
	var lines []string
	for _, ft := range flagText {
		if v.Has(ft.flag) {
			lines = append(lines, "! "+ft.text)
		}
	}
	if len(lines) == 0 {
		return "! Unknown verification failure"
	}
	return strings.Join(lines, "\n")
}

// FlagsFromError classifies a certificate verification error. It returns 0
// when err carries no verification failure.
func FlagsFromError(err error) VerifyFlags {
	return flagsAt(err, time.Now())
}

func flagsAt(err error, now time.Time) VerifyFlags {
	if err == nil {
		return 0
	}

	var flags VerifyFlags

	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		flags |= FlagCNMismatch
	}

	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		flags |= FlagNotTrusted
	}

	var rootsErr x509.SystemRootsError
	if errors.As(err, &rootsErr) {
		flags |= FlagNotTrusted
	}

	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &invalidErr) {
		flags |= invalidFlags(invalidErr, now)
	}

	var algErr x509.InsecureAlgorithmError
	if errors.As(err, &algErr) {
		flags |= FlagBadMD
	}

	var constraintErr x509.ConstraintViolationError
	if errors.As(err, &constraintErr) {
		flags |= FlagKeyUsage
	}

	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		if len(verifyErr.UnverifiedCertificates) == 0 {
			flags |= FlagMissing
		}
		if flags == 0 {
			flags = FlagOther
		}
	}

	return flags
}

func invalidFlags(err x509.CertificateInvalidError, now time.Time) VerifyFlags {
	switch err.Reason {
	case x509.Expired:
		if err.Cert != nil && now.Before(err.Cert.NotBefore) {
			return FlagFuture
		}
		return FlagExpired
	case x509.IncompatibleUsage, x509.CANotAuthorizedForExtKeyUsage:
		return FlagExtKeyUsage
	case x509.NotAuthorizedToSign,
		x509.TooManyIntermediates,
		x509.CANotAuthorizedForThisName,
		x509.NameMismatch,
		x509.NameConstraintsWithoutSANs,
		x509.UnconstrainedName:
		return FlagNotTrusted
	default:
		return FlagOther
	}
}

// CertificateInfo extracts human-readable information from a certificate.
type CertificateInfo struct {
	Subject   string
	Issuer    string
	DNSNames  []string
	NotBefore time.Time
	NotAfter  time.Time
	IsCA      bool
	SKI       string
}

// GetCertificateInfo extracts information from a certificate.
func GetCertificateInfo(c *x509.Certificate) *CertificateInfo {
	if c == nil {
		return nil
	}
	return &CertificateInfo{
		Subject:   c.Subject.String(),
		Issuer:    c.Issuer.String(),
		DNSNames:  c.DNSNames,
		NotBefore: c.NotBefore,
		NotAfter:  c.NotAfter,
		IsCA:      c.IsCA,
		SKI:       hex.EncodeToString(c.SubjectKeyId),
	}
}

// PeerInfo describes the leaf certificate of a negotiated session.
func PeerInfo(state tls.ConnectionState) *CertificateInfo {
	if len(state.PeerCertificates) == 0 {
		return nil
	}
	return GetCertificateInfo(state.PeerCertificates[0])
}
