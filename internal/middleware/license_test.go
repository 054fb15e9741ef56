package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licensegate/internal/license"
)

type stubSource struct {
	result *license.ValidationResult
	calls  atomic.Int64
}

func (s *stubSource) Entitlement(_ context.Context) *license.ValidationResult {
	s.calls.Add(1)
	return s.result
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLicenseGateAllowsValidLicense(t *testing.T) {
	source := &stubSource{result: &license.ValidationResult{
		IsValid: true,
		Status:  license.StatusActive,
	}}
	gate := NewLicenseGate(source, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	gate.Handler(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(GraceExpiryHeader))
}

func TestLicenseGateGraceHeader(t *testing.T) {
	expiry := time.Now().Add(10 * 24 * time.Hour).UTC().Truncate(time.Second)
	source := &stubSource{result: &license.ValidationResult{
		IsValid:           true,
		Status:            license.StatusGracePeriod,
		IsGracePeriod:     true,
		GracePeriodExpiry: &expiry,
	}}
	gate := NewLicenseGate(source, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	gate.Handler(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, expiry.Format(time.RFC3339), rec.Header().Get(GraceExpiryHeader))
}

func TestLicenseGateDenies(t *testing.T) {
	tests := []struct {
		name       string
		status     license.ValidationStatus
		wantStatus int
	}{
		{"expired", license.StatusExpired, http.StatusForbidden},
		{"invalid", license.StatusInvalid, http.StatusForbidden},
		{"corrupted", license.StatusCorrupted, http.StatusForbidden},
		{"not_yet_valid", license.StatusNotYetValid, http.StatusForbidden},
		{"not_found", license.StatusNotFound, http.StatusNotFound},
		{"service_unavailable", license.StatusServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &stubSource{result: &license.ValidationResult{Status: tt.status}}
			gate := NewLicenseGate(source, testLogger())

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
			gate.Handler(okHandler()).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, string(tt.status), problem["license_status"])
			assert.NotEmpty(t, problem["type"])

			if tt.status == license.StatusServiceUnavailable {
				assert.Equal(t, "30", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestLicenseGateNilResultDenied(t *testing.T) {
	source := &stubSource{result: nil}
	gate := NewLicenseGate(source, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	gate.Handler(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLicenseGateExclusions(t *testing.T) {
	source := &stubSource{result: &license.ValidationResult{Status: license.StatusExpired}}
	gate := NewLicenseGate(source, testLogger())
	gate.AddExcludePath("/custom")
	gate.AddExcludePrefix("/static/")

	paths := []string{
		"/healthz",
		"/readyz",
		"/metrics",
		"/api/license/validate",
		"/custom",
		"/static/app.js",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, path, nil)
			gate.Handler(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}

	assert.Zero(t, source.calls.Load(), "excluded paths must not consult the entitlement source")
}

func TestLicenseGateCachesDecision(t *testing.T) {
	source := &stubSource{result: &license.ValidationResult{
		IsValid: true,
		Status:  license.StatusActive,
	}}
	gate := NewLicenseGate(source, testLogger())
	handler := gate.Handler(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, int64(1), source.calls.Load())

	gate.InvalidateCache()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	assert.Equal(t, int64(2), source.calls.Load())
}

func TestLicenseGateCacheTTLExpiry(t *testing.T) {
	source := &stubSource{result: &license.ValidationResult{
		IsValid: true,
		Status:  license.StatusActive,
	}}
	gate := NewLicenseGate(source, testLogger())
	gate.SetCacheTTL(10 * time.Millisecond)
	handler := gate.Handler(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	time.Sleep(20 * time.Millisecond)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	assert.Equal(t, int64(2), source.calls.Load())
}
