package license

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"sync/atomic"
)

// SignatureVerifier checks license payload authenticity against a single
// immutable RSA public key. The key is loaded once at construction; a
// verifier with no usable key must never exist, so construction fails hard
// instead of degrading.
type SignatureVerifier struct {
	key        *rsa.PublicKey
	thumbprint string
	calls      atomic.Int64
}

// NewSignatureVerifier parses a PEM-encoded RSA public key (PKIX or PKCS#1
// form). An empty or unparseable key is a fatal configuration error.
func NewSignatureVerifier(publicKeyPEM string) (*SignatureVerifier, error) {
	if publicKeyPEM == "" {
		return nil, fmt.Errorf("public key is required: refusing to construct a verifier without a trust anchor")
	}

	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("public key is not valid PEM")
	}

	key, err := parseRSAPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	sum := sha256.Sum256(block.Bytes)
	return &SignatureVerifier{
		key:        key,
		thumbprint: hex.EncodeToString(sum[:]),
	}, nil
}

func parseRSAPublicKey(der []byte) (*rsa.PublicKey, error) {
	if pub, err := x509.ParsePKIXPublicKey(der); err == nil {
		rsaKey, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key is %T, want RSA", pub)
		}
		return rsaKey, nil
	}
	return x509.ParsePKCS1PublicKey(der)
}

// Verify reports whether signature is a valid SHA-256 PKCS#1 v1.5 signature
// over data. Every failure mode, including malformed input, reports false;
// verification never propagates an error past this boundary.
func (v *SignatureVerifier) Verify(data, signature []byte) bool {
	v.calls.Add(1)
	if len(data) == 0 || len(signature) == 0 {
		return false
	}
	digest := sha256.Sum256(data)
	return rsa.VerifyPKCS1v15(v.key, crypto.SHA256, digest[:], signature) == nil
}

// Thumbprint returns the hex SHA-256 of the loaded key's DER encoding.
func (v *SignatureVerifier) Thumbprint() string {
	return v.thumbprint
}

// VerifyCalls reports how many times Verify has run. Used by cache behavior
// tests to prove cached results skip re-verification.
func (v *SignatureVerifier) VerifyCalls() int64 {
	return v.calls.Load()
}
