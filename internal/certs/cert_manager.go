package certs

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrExpired is returned by Check for a certificate past its NotAfter.
var ErrExpired = errors.New("certificate expired")

// CertManager checks the TLS certificate pair the server listens with.
type CertManager struct {
	certFile string
	keyFile  string
	now      func() time.Time
}

// NewCertManager creates a new CertManager for the given PEM files.
func NewCertManager(certFile, keyFile string) *CertManager {
	return &CertManager{certFile: certFile, keyFile: keyFile, now: time.Now}
}

// LoadCertificate parses the first certificate in the cert file.
func (cm *CertManager) LoadCertificate() (*x509.Certificate, error) {
	data, err := os.ReadFile(cm.certFile)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to parse certificate PEM")
	}

	return x509.ParseCertificate(block.Bytes)
}

// IsExpired checks if a certificate is expired.
func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(cm.now())
}

// ExpiresWithin reports whether cert expires in less than d.
func (cm *CertManager) ExpiresWithin(cert *x509.Certificate, d time.Duration) bool {
	return cert.NotAfter.Before(cm.now().Add(d))
}

// Check verifies that the key matches the certificate and that the
// certificate is still valid, returning the parsed leaf.
func (cm *CertManager) Check() (*x509.Certificate, error) {
	if _, err := tls.LoadX509KeyPair(cm.certFile, cm.keyFile); err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}
	cert, err := cm.LoadCertificate()
	if err != nil {
		return nil, err
	}
	if cm.IsExpired(cert) {
		return cert, fmt.Errorf("%w: %s not after %s", ErrExpired, cm.certFile, cert.NotAfter.Format(time.RFC3339))
	}
	return cert, nil
}
