// Package crypto derives TLS certificates from a shared key. Two peers
// configured with the same key derive the same CA and can mutually
// authenticate without distributing certificate files.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"
)

// GenerateCertificates derives a CA from the seed and issues a fresh leaf
// certificate signed by it. An empty seed yields a random, one-off CA.
func GenerateCertificates(seed string) (*x509.CertPool, tls.Certificate, error) {
	var pool *x509.CertPool
	var leaf tls.Certificate

	if seed == "" {
		random, err := RandomString(32)
		if err != nil {
			return pool, leaf, fmt.Errorf("RandomString(32): %w", err)
		}
		seed = random
	}

	caKeyPEM, caCertPEM, err := deriveCA(seed)
	if err != nil {
		return pool, leaf, fmt.Errorf("deriveCA: %w", err)
	}

	pool = x509.NewCertPool()
	pool.AppendCertsFromPEM(caCertPEM)

	leaf, err = issueLeaf(caCertPEM, caKeyPEM)
	if err != nil {
		return pool, leaf, fmt.Errorf("issueLeaf: %w", err)
	}

	return pool, leaf, nil
}

// deriveCA deterministically generates a CA key and self-signed certificate
// from the seed, both PEM-encoded.
func deriveCA(seed string) (keyPEM, certPEM []byte, err error) {
	rng := randReader(seed)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rng)
	if err != nil {
		return nil, nil, fmt.Errorf("generating CA key: %w", err)
	}

	cn, err := randomName(8, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("generating common name: %w", err)
	}
	org, err := randomName(8, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("generating organization: %w", err)
	}

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{org},
		},
		NotBefore:             time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:              time.Date(2063, 4, 5, 0, 0, 0, 0, time.UTC),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
	}

	cert, err := x509.CreateCertificate(rng, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("creating CA certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling CA key: %w", err)
	}

	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert})
	return keyPEM, certPEM, nil
}

// issueLeaf creates a new certificate signed by the given CA. The leaf key
// is always random; only the CA is derived from the seed.
func issueLeaf(caCertPEM, caKeyPEM []byte) (tls.Certificate, error) {
	var out tls.Certificate

	keyBlock, _ := pem.Decode(caKeyPEM)
	if keyBlock == nil {
		return out, fmt.Errorf("no PEM block in CA key")
	}
	caKey, err := x509.ParseECPrivateKey(keyBlock.Bytes)
	if err != nil {
		return out, fmt.Errorf("x509.ParseECPrivateKey: %w", err)
	}

	certBlock, _ := pem.Decode(caCertPEM)
	if certBlock == nil {
		return out, fmt.Errorf("no PEM block in CA certificate")
	}
	caCert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return out, fmt.Errorf("x509.ParseCertificate: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return out, fmt.Errorf("generating leaf key: %w", err)
	}

	cn, err := randomName(8, rand.Reader)
	if err != nil {
		return out, fmt.Errorf("generating common name: %w", err)
	}

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2063, 4, 5, 0, 0, 0, 0, time.UTC),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	cert, err := x509.CreateCertificate(rand.Reader, &tmpl, caCert, &key.PublicKey, caKey)
	if err != nil {
		return out, fmt.Errorf("creating leaf certificate: %w", err)
	}

	out = tls.Certificate{
		Certificate: [][]byte{cert},
		PrivateKey:  key,
	}
	return out, nil
}
