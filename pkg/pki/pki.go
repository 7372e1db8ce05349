// Package pki loads keys and certificates from PEM files.
package pki

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		return nil, fmt.Errorf("failed to decode PEM block containing private key")
	}

	return x509.ParseECPrivateKey(block.Bytes)
}

func LoadCertificate(path string) (*x509.Certificate, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("failed to decode PEM block containing certificate")
	}

	return x509.ParseCertificate(block.Bytes)
}

// GetRootCertificate builds a pool from a single PEM file.
func GetRootCertificate(path string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	cert, err := LoadCertificate(path)
	if err != nil {
		return nil, err
	}
	pool.AddCert(cert)
	return pool, nil
}

// GetRootCertificates builds a pool from every .pem file in a directory.
func GetRootCertificates(dir string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pem" {
			continue
		}
		cert, err := LoadCertificate(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", entry.Name(), err)
		}
		pool.AddCert(cert)
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no root certificates found in %s", dir)
	}
	return pool, nil
}
