package license

import (
	"strings"
	"time"
)

// ValidationStatus is the terminal outcome of a validation run. Every call
// produces exactly one status; there are no other error kinds surfaced to
// callers.
type ValidationStatus string

const (
	StatusActive             ValidationStatus = "Active"
	StatusGracePeriod        ValidationStatus = "GracePeriod"
	StatusExpired            ValidationStatus = "Expired"
	StatusNotYetValid        ValidationStatus = "NotYetValid"
	StatusInvalid            ValidationStatus = "Invalid"
	StatusCorrupted          ValidationStatus = "Corrupted"
	StatusNotFound           ValidationStatus = "NotFound"
	StatusServiceUnavailable ValidationStatus = "ServiceUnavailable"
)

// Allows reports whether the status grants feature access.
func (s ValidationStatus) Allows() bool {
	return s == StatusActive || s == StatusGracePeriod
}

// LicenseTier is an ordered entitlement level. Community, Professional and
// Enterprise are strictly ordered; Custom's relative rank is a policy
// decision, see TierPolicy.
type LicenseTier string

const (
	TierCommunity    LicenseTier = "Community"
	TierProfessional LicenseTier = "Professional"
	TierEnterprise   LicenseTier = "Enterprise"
	TierCustom       LicenseTier = "Custom"
)

// ParseTier resolves a tier name case-insensitively. The second return is
// false for unknown names.
func ParseTier(name string) (LicenseTier, bool) {
	for _, tier := range []LicenseTier{TierCommunity, TierProfessional, TierEnterprise, TierCustom} {
		if strings.EqualFold(name, string(tier)) {
			return tier, true
		}
	}
	return "", false
}

// tierRank gives the ordinal position used for ordered comparisons.
// Custom is handled separately by TierPolicy.
var tierRank = map[LicenseTier]int{
	TierCommunity:    0,
	TierProfessional: 1,
	TierEnterprise:   2,
}

// TierPolicy pins down how a Custom tier compares against tier requirements.
// The ordering of the regular tiers is fixed; only Custom is configurable.
type TierPolicy int

const (
	// CustomSatisfiesAll treats a Custom license as satisfying every tier
	// requirement. Default.
	CustomSatisfiesAll TierPolicy = iota
	// CustomStrict treats Custom as incomparable: a Custom license satisfies
	// only an explicit Custom requirement, and no regular license satisfies
	// a Custom requirement.
	CustomStrict
)

// Satisfies reports whether a license at tier have meets the requirement.
func (p TierPolicy) Satisfies(have, required LicenseTier) bool {
	if have == TierCustom {
		if p == CustomStrict {
			return required == TierCustom
		}
		return true
	}
	if required == TierCustom {
		return false
	}
	haveRank, ok := tierRank[have]
	if !ok {
		return false
	}
	reqRank, ok := tierRank[required]
	if !ok {
		return false
	}
	return haveRank >= reqRank
}

// SignedLicense is the wire envelope produced by the issuance service. It is
// immutable once received; the validator never mutates it.
type SignedLicense struct {
	LicenseData         string `json:"licenseData" validate:"required,base64"`
	Signature           string `json:"signature" validate:"required"`
	PublicKeyThumbprint string `json:"publicKeyThumbprint"`
	Checksum            string `json:"checksum"`
	FormatVersion       int    `json:"formatVersion"`
}

// CacheKey identifies the envelope by content for memoization. The thumbprint
// and checksum are identity fields only; trust decisions never rely on them.
func (s *SignedLicense) CacheKey() string {
	return s.PublicKeyThumbprint + ":" + s.Checksum
}

// LicenseFeature is a single capability carried inside a license.
type LicenseFeature struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	IsCurrentlyValid bool   `json:"isCurrentlyValid"`
}

// License is the decoded payload describing the entitlement. The Status field
// is informational only; live date evaluation is authoritative.
type License struct {
	LicenseID           string            `json:"licenseId"`
	ProductID           string            `json:"productId"`
	ConsumerID          string            `json:"consumerId"`
	LicensedTo          string            `json:"licensedTo"`
	ContactEmail        string            `json:"contactEmail"`
	Tier                LicenseTier       `json:"tier"`
	ValidFrom           time.Time         `json:"validFrom"`
	ValidTo             time.Time         `json:"validTo"`
	IssuedAt            time.Time         `json:"issuedAt"`
	Issuer              string            `json:"issuer"`
	ProductVersion      string            `json:"productVersion"`
	MaxSupportedVersion string            `json:"maxSupportedVersion"`
	FeaturesIncluded    []LicenseFeature  `json:"featuresIncluded"`
	Metadata            map[string]string `json:"metadata"`
	Status              string            `json:"status"`
	RevokedAt           *time.Time        `json:"revokedAt,omitempty"`
	RevocationReason    string            `json:"revocationReason,omitempty"`
}

// ValidFeatureNames returns the names of features usable right now.
func (l *License) ValidFeatureNames() []string {
	names := make([]string, 0, len(l.FeaturesIncluded))
	for _, f := range l.FeaturesIncluded {
		if f.IsCurrentlyValid {
			names = append(names, f.Name)
		}
	}
	return names
}

// ValidationOptions controls which checks run and how results are cached.
// Owned by the caller; pass DefaultOptions() unless you need to deviate.
type ValidationOptions struct {
	ValidateSignature    bool `yaml:"validate_signature" json:"validateSignature"`
	ValidateDates        bool `yaml:"validate_dates" json:"validateDates"`
	AllowGracePeriod     bool `yaml:"allow_grace_period" json:"allowGracePeriod"`
	GracePeriodDays      int  `yaml:"grace_period_days" json:"gracePeriodDays"`
	EnableCaching        bool `yaml:"enable_caching" json:"enableCaching"`
	CacheDurationMinutes int  `yaml:"cache_duration_minutes" json:"cacheDurationMinutes"`
	EnableAuditLogging   bool `yaml:"enable_audit_logging" json:"enableAuditLogging"`
}

// DefaultOptions returns the standard validation configuration.
func DefaultOptions() ValidationOptions {
	return ValidationOptions{
		ValidateSignature:    true,
		ValidateDates:        true,
		AllowGracePeriod:     true,
		GracePeriodDays:      30,
		EnableCaching:        true,
		CacheDurationMinutes: 15,
		EnableAuditLogging:   false,
	}
}

// ValidationResult is the complete outcome of one validation run.
// Invariant: when Status is Active or GracePeriod, License is non-nil and
// IsSignatureValid is true.
type ValidationResult struct {
	IsValid           bool             `json:"isValid"`
	Status            ValidationStatus `json:"status"`
	License           *License         `json:"license,omitempty"`
	IsSignatureValid  bool             `json:"isSignatureValid"`
	AreDatesValid     bool             `json:"areDatesValid"`
	IsGracePeriod     bool             `json:"isGracePeriod"`
	GracePeriodExpiry *time.Time       `json:"gracePeriodExpiry,omitempty"`
	AvailableFeatures []string         `json:"availableFeatures"`
	Messages          []string         `json:"messages"`
}

// LicenseCodeComponents is the parsed form of a display code. Constructed
// only by ParseCode from a well-formed code string.
type LicenseCodeComponents struct {
	ProductPrefix  string
	ConsumerPrefix string
	Year           int
	Month          int
	Random1        string
	Random2        string
	Random3        string
	FullCode       string
}
