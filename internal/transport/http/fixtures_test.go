package http

import (
	"bytes"
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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"licensegate/internal/license"
	apiv1 "licensegate/pkg/contracts/api/v1"
)

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

func testLicense(validFrom, validTo time.Time) license.License {
	return license.License{
		LicenseID:    "lic-7f3a2b91",
		ProductID:    "d94f2c10-55aa-4b7e-9c1d-8e2f6a3b0c44",
		ConsumerID:   "0ab31e76-2d4f-48c9-b5e2-71c09d8fe513",
		LicensedTo:   "Example Corp",
		ContactEmail: "licensing@example.com",
		Tier:         license.TierProfessional,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		IssuedAt:     validFrom,
		Issuer:       "example-issuer",
		FeaturesIncluded: []license.LicenseFeature{
			{ID: "f1", Name: "Reporting", Description: "scheduled reporting", IsCurrentlyValid: true},
			{ID: "f2", Name: "Clustering", Description: "multi-node mode", IsCurrentlyValid: false},
		},
		Metadata: map[string]string{
			"limit:reporting": "25",
		},
		Status: "Issued",
	}
}

func signEnvelope(t *testing.T, priv *rsa.PrivateKey, lic license.License) apiv1.LicenseEnvelope {
	t.Helper()

	payload, err := json.Marshal(lic)
	require.NoError(t, err)

	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	thumb := sha256.Sum256(der)

	return apiv1.LicenseEnvelope{
		LicenseData:         base64.StdEncoding.EncodeToString(payload),
		Signature:           base64.StdEncoding.EncodeToString(sig),
		PublicKeyThumbprint: hex.EncodeToString(thumb[:]),
		Checksum:            hex.EncodeToString(digest[:]),
		FormatVersion:       1,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestValidator(t *testing.T) (*license.Validator, *rsa.PrivateKey) {
	t.Helper()

	priv, pubPEM := testKeyPair(t)
	v, err := license.NewValidator(pubPEM, license.DefaultOptions(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v, priv
}

// postJSON issues a JSON request against a handler and returns the recorder.
func postJSON(t *testing.T, handler http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
