package errors

import (
	"net/http"

	"licensegate/internal/license"
)

// Machine-readable error codes for license denial responses. Access-control
// layers branch on these, not on message text.
const (
	ErrCodeLicenseInvalid     = "LICENSE_INVALID"
	ErrCodeLicenseCorrupted   = "LICENSE_CORRUPTED"
	ErrCodeLicenseExpired     = "LICENSE_EXPIRED"
	ErrCodeLicenseNotYetValid = "LICENSE_NOT_YET_VALID"
	ErrCodeLicenseNotFound    = "LICENSE_NOT_FOUND"
	ErrCodeValidationDown     = "VALIDATION_UNAVAILABLE"
)

// statusMapping pins each non-success validation status to its HTTP
// classification. Invalid, corrupted and date failures deny outright;
// ServiceUnavailable is deny-with-retry.
var statusMapping = map[license.ValidationStatus]*APIError{
	license.StatusInvalid:            New(http.StatusForbidden, ErrCodeLicenseInvalid, "License signature verification failed"),
	license.StatusCorrupted:          New(http.StatusForbidden, ErrCodeLicenseCorrupted, "License data is corrupted or unreadable"),
	license.StatusExpired:            New(http.StatusForbidden, ErrCodeLicenseExpired, "License has expired"),
	license.StatusNotYetValid:        New(http.StatusForbidden, ErrCodeLicenseNotYetValid, "License validity window has not started"),
	license.StatusNotFound:           New(http.StatusNotFound, ErrCodeLicenseNotFound, "No license was provided"),
	license.StatusServiceUnavailable: New(http.StatusServiceUnavailable, ErrCodeValidationDown, "License validation is temporarily unavailable"),
}

// problemTypes maps validation statuses to RFC 7807 problem type URIs.
var problemTypes = map[license.ValidationStatus]string{
	license.StatusInvalid:            TypeLicenseInvalid,
	license.StatusCorrupted:          TypeLicenseCorrupted,
	license.StatusExpired:            TypeLicenseExpired,
	license.StatusNotYetValid:        TypeLicenseNotYetValid,
	license.StatusNotFound:           TypeLicenseNotFound,
	license.StatusServiceUnavailable: TypeServiceDown,
}

// FromValidationStatus converts a non-success validation status to its API
// error. Active and GracePeriod have no error mapping; callers must not
// reach here with a success status.
func FromValidationStatus(status license.ValidationStatus) *APIError {
	if apiErr, ok := statusMapping[status]; ok {
		return apiErr
	}
	return ErrInternalServer
}

// LicenseProblem builds an RFC 7807 denial document for a validation status,
// carrying the machine-readable code as an extension.
func LicenseProblem(status license.ValidationStatus, instance string) *ProblemDetails {
	apiErr := FromValidationStatus(status)

	problemType, ok := problemTypes[status]
	if !ok {
		problemType = TypeInternal
	}

	pd := NewProblemDetails(apiErr.StatusCode, problemType, apiErr.Message, "", instance).
		WithExtension("error_code", apiErr.ErrorCode).
		WithExtension("license_status", string(status))
	if status == license.StatusServiceUnavailable {
		pd.WithExtension("retryable", true)
	}
	return pd
}
