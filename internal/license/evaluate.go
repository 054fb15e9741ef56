package license

import (
	"time"
)

// dateVerdict is the outcome of pure date evaluation, before feature
// filtering or caching.
type dateVerdict struct {
	status      ValidationStatus
	gracePeriod bool
	graceExpiry time.Time
}

// evaluateDates applies the validity window rules to a decoded license.
// Precedence: not-yet-valid is a hard failure with no grace; a date inside
// the window is Active; past the window the configured grace extension may
// soften the edge to GracePeriod, otherwise the license is Expired.
func evaluateDates(lic *License, now time.Time, opts ValidationOptions) dateVerdict {
	if now.Before(lic.ValidFrom) {
		return dateVerdict{status: StatusNotYetValid}
	}
	if !now.After(lic.ValidTo) {
		return dateVerdict{status: StatusActive}
	}

	if opts.AllowGracePeriod && opts.GracePeriodDays > 0 {
		graceExpiry := lic.ValidTo.AddDate(0, 0, opts.GracePeriodDays)
		if !now.After(graceExpiry) {
			return dateVerdict{
				status:      StatusGracePeriod,
				gracePeriod: true,
				graceExpiry: graceExpiry,
			}
		}
	}
	return dateVerdict{status: StatusExpired}
}
