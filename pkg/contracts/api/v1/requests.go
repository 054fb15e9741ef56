// Package api contains API contract definitions for the license gate service.
// Version v1 represents the current stable API version.
package api

// License API Requests

// LicenseEnvelope carries a signed license as supplied by a client. The
// payload is opaque at this layer; signature and content checks happen in
// the validation service.
type LicenseEnvelope struct {
	LicenseData         string `json:"licenseData" validate:"required"`
	Signature           string `json:"signature"`
	PublicKeyThumbprint string `json:"publicKeyThumbprint"`
	Checksum            string `json:"checksum"`
	FormatVersion       int    `json:"formatVersion" validate:"omitempty,min=1"`
}

// LicenseValidateRequest represents a full license validation request
type LicenseValidateRequest struct {
	License LicenseEnvelope `json:"license" validate:"required"`
}

// FeatureCheckRequest represents a feature availability check. The feature
// name travels in the URL path; the body carries the license to check
// against.
type FeatureCheckRequest struct {
	License LicenseEnvelope `json:"license" validate:"required"`
}

// TierCheckRequest represents a tier entitlement check. The required tier
// travels in the URL path.
type TierCheckRequest struct {
	License LicenseEnvelope `json:"license" validate:"required"`
}

// CacheInvalidateRequest represents a request to drop cached validation
// results. An empty thumbprint/checksum pair clears the whole cache.
type CacheInvalidateRequest struct {
	PublicKeyThumbprint string `json:"publicKeyThumbprint" validate:"omitempty"`
	Checksum            string `json:"checksum" validate:"omitempty,required_with=PublicKeyThumbprint"`
}
