// Package cryptoroot mints throwaway certificate chains for the demo
// server and the tests: a root CA and a document signing certificate
// carrying the 18013-5 issuer EKU.
package cryptoroot

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"
)

// OID 1.0.18013.5.1.6: extended key usage for mdoc document signers.
var mdlDocumentSignerOID = asn1.ObjectIdentifier{1, 0, 18013, 5, 1, 6}

// Chain is an in-memory root CA plus one document signing key pair.
type Chain struct {
	RootCert   *x509.Certificate
	SignerCert *x509.Certificate
	SignerKey  *ecdsa.PrivateKey
}

// New generates a fresh root and document signing certificate, valid
// from an hour in the past so freshly issued credentials pass the
// signed-date check.
func New() (*Chain, error) {
	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate root key: %w", err)
	}

	rootCert, err := createRootCertificate(rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create root certificate: %w", err)
	}

	signerKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signer key: %w", err)
	}

	signerCert, err := createDocumentSignerCertificate(signerKey, rootCert, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer certificate: %w", err)
	}

	return &Chain{
		RootCert:   rootCert,
		SignerCert: signerCert,
		SignerKey:  signerKey,
	}, nil
}

// Roots returns a pool holding the root certificate.
func (c *Chain) Roots() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(c.RootCert)
	return pool
}

// DER returns the chain in leaf-first order for the x5chain header.
func (c *Chain) DER() [][]byte {
	return [][]byte{c.SignerCert.Raw, c.RootCert.Raw}
}

func createRootCertificate(key *ecdsa.PrivateKey) (*x509.Certificate, error) {
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "mdoc-credential Root CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            1,
		SubjectKeyId:          calcKID(&key.PublicKey),
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(derBytes)
}

func createDocumentSignerCertificate(key *ecdsa.PrivateKey, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (*x509.Certificate, error) {
	template := x509.Certificate{
		SerialNumber:       big.NewInt(2),
		Subject:            pkix.Name{CommonName: "mdoc-credential Document Signer"},
		NotBefore:          time.Now().Add(-time.Hour),
		NotAfter:           time.Now().AddDate(1, 0, 0),
		KeyUsage:           x509.KeyUsageDigitalSignature,
		IsCA:               false,
		SubjectKeyId:       calcKID(&key.PublicKey),
		AuthorityKeyId:     calcKID(&parentKey.PublicKey),
		UnknownExtKeyUsage: []asn1.ObjectIdentifier{mdlDocumentSignerOID},
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, parent, &key.PublicKey, parentKey)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(derBytes)
}

func calcKID(pub *ecdsa.PublicKey) []byte {
	b := elliptic.Marshal(pub.Curve, pub.X, pub.Y)
	sum := sha1.Sum(b)
	return sum[:]
}
