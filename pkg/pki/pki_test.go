package pki

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestCertificate(t *testing.T, path string) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "pki test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		t.Fatal(err)
	}
	return cert
}

func TestLoadPrivateKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "key.pem")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := pem.Encode(f, &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	loaded, err := LoadPrivateKey(path)
	if err != nil {
		t.Fatalf("failed to load private key: %v", err)
	}
	if !loaded.PublicKey.Equal(&key.PublicKey) {
		t.Error("loaded key differs from original")
	}
}

func TestLoadPrivateKeyWrongBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cert.pem")
	writeTestCertificate(t, path)

	if _, err := LoadPrivateKey(path); err == nil {
		t.Error("expected error loading a certificate as a key")
	}
}

func TestLoadCertificate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cert.pem")
	want := writeTestCertificate(t, path)

	got, err := LoadCertificate(path)
	if err != nil {
		t.Fatalf("failed to load certificate: %v", err)
	}
	if !got.Equal(want) {
		t.Error("loaded certificate differs from original")
	}
}

func TestGetRootCertificate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "root.pem")
	writeTestCertificate(t, path)

	pool, err := GetRootCertificate(path)
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}
	if pool == nil {
		t.Fatal("expected a pool")
	}
}

func TestGetRootCertificates(t *testing.T) {
	dir := t.TempDir()
	writeTestCertificate(t, filepath.Join(dir, "a.pem"))
	writeTestCertificate(t, filepath.Join(dir, "b.pem"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := GetRootCertificates(dir); err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	empty := t.TempDir()
	if _, err := GetRootCertificates(empty); err == nil {
		t.Error("expected error for a directory without certificates")
	}
}
