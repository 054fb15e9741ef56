package app

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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licensegate/internal/license"
	apiv1 "licensegate/pkg/contracts/api/v1"
)

func testPublicKeyPEM(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	return priv, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func setTestEnv(t *testing.T, publicKeyPEM string) {
	t.Helper()
	t.Setenv("LICENSEGATE_LICENSE_PUBLIC_KEY_PEM", publicKeyPEM)
	t.Setenv("LICENSEGATE_TELEMETRY_ENABLED", "false")
	t.Setenv("LICENSEGATE_SERVER_RATE_LIMIT_ENABLED", "false")
	t.Setenv("LICENSEGATE_LOGGING_OUTPUT", "console")
	t.Setenv("LICENSEGATE_LOGGING_LEVEL", "error")
}

func TestNewApplication(t *testing.T) {
	_, pubPEM := testPublicKeyPEM(t)
	setTestEnv(t, pubPEM)

	a, err := New("")
	require.NoError(t, err)
	defer a.Validator.Close()

	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Server)
	assert.NotEmpty(t, a.Validator.Thumbprint())
}

func TestNewApplicationFailsWithoutTrustAnchor(t *testing.T) {
	setTestEnv(t, "")

	_, err := New("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trust anchor")
}

func TestNewApplicationFailsWithBadTrustAnchor(t *testing.T) {
	setTestEnv(t, "not a pem block")

	_, err := New("")
	require.Error(t, err)
}

func TestRouterProbes(t *testing.T) {
	_, pubPEM := testPublicKeyPEM(t)
	setTestEnv(t, pubPEM)

	a, err := New("")
	require.NoError(t, err)
	defer a.Validator.Close()

	for _, path := range []string{"/healthz", "/readyz", "/api/version"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRouterValidatesLicenseEndToEnd(t *testing.T) {
	priv, pubPEM := testPublicKeyPEM(t)
	setTestEnv(t, pubPEM)

	a, err := New("")
	require.NoError(t, err)
	defer a.Validator.Close()

	now := time.Now().UTC()
	lic := license.License{
		LicenseID: "lic-e2e",
		ProductID: "prod-1",
		Tier:      license.TierEnterprise,
		ValidFrom: now.Add(-time.Hour),
		ValidTo:   now.Add(24 * time.Hour),
		Status:    "Issued",
	}

	payload, err := json.Marshal(lic)
	require.NoError(t, err)
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)

	body, err := json.Marshal(apiv1.LicenseValidateRequest{
		License: apiv1.LicenseEnvelope{
			LicenseData:   base64.StdEncoding.EncodeToString(payload),
			Signature:     base64.StdEncoding.EncodeToString(sig),
			Checksum:      hex.EncodeToString(digest[:]),
			FormatVersion: 1,
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/license/validate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp apiv1.LicenseValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsValid)
	assert.Equal(t, "Active", resp.Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
