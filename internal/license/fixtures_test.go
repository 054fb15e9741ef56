package license

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testKeyPair generates a throwaway RSA key pair and returns the private key
// together with the PEM encoding of its public half. Issuance is out of
// production scope; tests sign their own payloads.
func testKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	})
	return priv, string(pemBytes)
}

// testLicense builds a representative license with one currently valid and
// one lapsed feature.
func testLicense(validFrom, validTo time.Time) License {
	return License{
		LicenseID:    "lic-7f3a2b91",
		ProductID:    "d94f2c10-55aa-4b7e-9c1d-8e2f6a3b0c44",
		ConsumerID:   "0ab31e76-2d4f-48c9-b5e2-71c09d8fe513",
		LicensedTo:   "Example Corp",
		ContactEmail: "licensing@example.com",
		Tier:         TierProfessional,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		IssuedAt:     validFrom,
		Issuer:       "example-issuer",
		FeaturesIncluded: []LicenseFeature{
			{ID: "f1", Name: "Reporting", Description: "scheduled reporting", IsCurrentlyValid: true},
			{ID: "f2", Name: "Clustering", Description: "multi-node mode", IsCurrentlyValid: false},
		},
		Metadata: map[string]string{
			"limit:reporting": "25",
		},
		Status: "Issued",
	}
}

// signEnvelope marshals, signs and packages a license the way the issuance
// service does on the wire.
func signEnvelope(t *testing.T, priv *rsa.PrivateKey, lic License) *SignedLicense {
	t.Helper()

	payload, err := json.Marshal(lic)
	require.NoError(t, err)

	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)

	checksum := sha256.Sum256(payload)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	thumb := sha256.Sum256(der)

	return &SignedLicense{
		LicenseData:         base64.StdEncoding.EncodeToString(payload),
		Signature:           base64.StdEncoding.EncodeToString(sig),
		PublicKeyThumbprint: hex.EncodeToString(thumb[:]),
		Checksum:            hex.EncodeToString(checksum[:]),
		FormatVersion:       1,
	}
}

// quietLogger keeps test output free of validator log noise.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestValidator wires a validator with a fresh key pair and registers
// cleanup.
func newTestValidator(t *testing.T, opts ValidationOptions) (*Validator, *rsa.PrivateKey) {
	t.Helper()

	priv, pubPEM := testKeyPair(t)
	v, err := NewValidator(pubPEM, opts, quietLogger())
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v, priv
}
