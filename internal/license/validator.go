package license

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// defaultCacheMaxSize bounds the validation cache. A process typically sees
// a handful of distinct envelopes, so the bound exists only to cap abuse.
const defaultCacheMaxSize = 1024

// Validator is the single entry point for license trust decisions. It owns
// one immutable public key and one validation cache, is constructed once per
// process, and is safe for concurrent use. Nothing in the validation path
// performs I/O after construction.
type Validator struct {
	verifier   *SignatureVerifier
	cache      *ValidationCache
	opts       ValidationOptions
	tierPolicy TierPolicy
	logger     *slog.Logger
	audit      *auditLogger
	metrics    *ValidatorMetrics
	group      singleflight.Group
	now        func() time.Time
}

// NewValidator constructs a validator around a PEM-encoded RSA public key.
// A missing or unparseable key is fatal: a validator without a trust anchor
// must never start.
func NewValidator(publicKeyPEM string, opts ValidationOptions, logger *slog.Logger) (*Validator, error) {
	verifier, err := NewSignatureVerifier(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("initialize signature verifier: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	ttl := time.Duration(opts.CacheDurationMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Duration(DefaultOptions().CacheDurationMinutes) * time.Minute
	}

	v := &Validator{
		verifier:   verifier,
		cache:      NewValidationCache(ttl, defaultCacheMaxSize),
		opts:       opts,
		tierPolicy: CustomSatisfiesAll,
		logger:     logger.With(slog.String("component", "license_validator")),
		now:        time.Now,
	}
	if opts.EnableAuditLogging {
		v.audit = newAuditLogger(logger)
	}

	v.logger.Info("license validator initialized",
		slog.String("key_thumbprint", maskIdentifier(verifier.Thumbprint())),
		slog.Bool("signature_check", opts.ValidateSignature),
		slog.Bool("date_check", opts.ValidateDates),
		slog.Bool("caching", opts.EnableCaching),
		slog.Int("grace_period_days", opts.GracePeriodDays),
	)

	return v, nil
}

// SetMetrics attaches OpenTelemetry metrics. Call before serving traffic.
func (v *Validator) SetMetrics(m *ValidatorMetrics) {
	v.metrics = m
}

// SetTierPolicy overrides how Custom-tier licenses compare against tier
// requirements.
func (v *Validator) SetTierPolicy(p TierPolicy) {
	v.tierPolicy = p
}

// Cache exposes the validation cache for monitoring and invalidation
// endpoints.
func (v *Validator) Cache() *ValidationCache {
	return v.cache
}

// Thumbprint returns the thumbprint of the loaded trust anchor.
func (v *Validator) Thumbprint() string {
	return v.verifier.Thumbprint()
}

// Close releases validator resources.
func (v *Validator) Close() {
	v.cache.Stop()
}

// Validate runs the full decision pipeline with the validator's configured
// options.
func (v *Validator) Validate(ctx context.Context, signed *SignedLicense) *ValidationResult {
	return v.ValidateWithOptions(ctx, signed, v.opts)
}

// ValidateWithOptions runs the full decision pipeline: cache lookup,
// signature verification, payload decode, date evaluation, feature
// filtering. Every failure mode is converted into a terminal status; no
// error and no panic escapes to the caller.
func (v *Validator) ValidateWithOptions(ctx context.Context, signed *SignedLicense, opts ValidationOptions) *ValidationResult {
	start := v.now()

	if signed == nil || signed.LicenseData == "" {
		result := &ValidationResult{
			Status:   StatusNotFound,
			Messages: []string{"no license was provided"},
		}
		v.finish(ctx, result, false, v.now().Sub(start))
		return result
	}

	key := signed.CacheKey()

	if opts.EnableCaching {
		if cached, ok := v.cache.Get(key); ok {
			v.finish(ctx, cached, true, v.now().Sub(start))
			return cached
		}
	}

	// Concurrent callers presenting the same envelope share one computation.
	// The computation is pure given the same bytes, so losing the race and
	// recomputing would also be correct; singleflight just avoids the
	// duplicate signature verification.
	computed, _, _ := v.group.Do(key, func() (interface{}, error) {
		result := v.compute(signed, opts)
		if opts.EnableCaching && result.Status != StatusServiceUnavailable {
			v.cache.Set(key, *result)
		}
		return result, nil
	})

	result := computed.(*ValidationResult)
	v.finish(ctx, result, false, v.now().Sub(start))
	return result
}

// compute performs the uncached pipeline. Panics anywhere inside are
// converted to a ServiceUnavailable result; the validator's contract is that
// its entry point never faults.
func (v *Validator) compute(signed *SignedLicense, opts ValidationOptions) (result *ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("license validation panicked",
				slog.Any("panic", r),
			)
			result = &ValidationResult{
				Status:   StatusServiceUnavailable,
				Messages: []string{fmt.Sprintf("validation failed unexpectedly: %v", r)},
			}
		}
	}()

	result = &ValidationResult{Status: StatusInvalid}

	// The payload bytes must exist before anything can be verified against
	// them. A payload that is not even base64 is corruption, not tampering.
	dataBytes, err := decodeLicenseData(signed.LicenseData)
	if err != nil {
		result.Status = StatusCorrupted
		result.Messages = append(result.Messages, "license data could not be decoded")
		return result
	}

	if opts.ValidateSignature {
		// Signature verification precedes any use of payload fields. No
		// field of an unverified payload ever feeds an authorization
		// decision.
		sigBytes, sigErr := base64.StdEncoding.DecodeString(signed.Signature)
		if sigErr != nil || !v.verifier.Verify(dataBytes, sigBytes) {
			result.Status = StatusInvalid
			result.Messages = append(result.Messages, "license signature verification failed")
			return result
		}
		result.IsSignatureValid = true
	} else {
		// Signature checking was opted out of; the flag reflects that the
		// signature is not in question, keeping the success invariant intact.
		result.IsSignatureValid = true
	}

	lic, err := decodeLicense(dataBytes)
	if err != nil {
		result.Status = StatusCorrupted
		result.Messages = append(result.Messages, "license payload could not be parsed")
		return result
	}

	if opts.ValidateDates {
		verdict := evaluateDates(lic, v.now().UTC(), opts)
		switch verdict.status {
		case StatusNotYetValid:
			result.Status = StatusNotYetValid
			result.Messages = append(result.Messages,
				fmt.Sprintf("license is not valid until %s", lic.ValidFrom.Format(time.RFC3339)))
			return result
		case StatusExpired:
			result.Status = StatusExpired
			result.Messages = append(result.Messages,
				fmt.Sprintf("license expired on %s", lic.ValidTo.Format(time.RFC3339)))
			return result
		case StatusGracePeriod:
			expiry := verdict.graceExpiry
			result.Status = StatusGracePeriod
			result.IsGracePeriod = true
			result.GracePeriodExpiry = &expiry
			result.AreDatesValid = true
			result.Messages = append(result.Messages,
				fmt.Sprintf("license expired on %s; running in grace period until %s",
					lic.ValidTo.Format(time.RFC3339), expiry.Format(time.RFC3339)))
		default:
			result.Status = StatusActive
			result.AreDatesValid = true
		}
	} else {
		result.Status = StatusActive
		result.AreDatesValid = true
	}

	result.IsValid = true
	result.License = lic
	result.AvailableFeatures = lic.ValidFeatureNames()
	if len(result.Messages) == 0 {
		result.Messages = append(result.Messages, "license is valid")
	}
	return result
}

// finish records metrics and the audit trail for one completed call.
func (v *Validator) finish(ctx context.Context, result *ValidationResult, fromCache bool, elapsed time.Duration) {
	v.metrics.recordValidation(ctx, result.Status, fromCache, elapsed)

	if v.audit != nil {
		entry := AuditEntry{
			ValidationID: uuid.NewString(),
			Status:       result.Status,
			IsValid:      result.IsValid,
			SignatureOK:  result.IsSignatureValid,
			DatesOK:      result.AreDatesValid,
			GracePeriod:  result.IsGracePeriod,
			FeatureCount: len(result.AvailableFeatures),
			FromCache:    fromCache,
			Thumbprint:   v.verifier.Thumbprint(),
			Duration:     elapsed,
		}
		if result.License != nil {
			entry.LicenseID = result.License.LicenseID
		}
		v.audit.Log(ctx, entry)
	}
}

// IsFeatureAvailable reports whether the license validates successfully and
// carries a currently valid feature with the given name. The comparison is
// case-insensitive.
func (v *Validator) IsFeatureAvailable(ctx context.Context, signed *SignedLicense, feature string) bool {
	result := v.Validate(ctx, signed)
	if !result.IsValid {
		return false
	}
	for _, name := range result.AvailableFeatures {
		if strings.EqualFold(name, feature) {
			return true
		}
	}
	return false
}

// SupportsTier reports whether the license validates successfully and its
// tier satisfies the requirement under the configured tier policy.
func (v *Validator) SupportsTier(ctx context.Context, signed *SignedLicense, required LicenseTier) bool {
	result := v.Validate(ctx, signed)
	if !result.IsValid || result.License == nil {
		return false
	}
	return v.tierPolicy.Satisfies(result.License.Tier, required)
}

// FeatureLimit looks up a numeric limit for a feature from the license
// metadata, under the key "limit:<feature>" (case-insensitive feature name).
// Returns false when the license does not validate or carries no such limit.
func (v *Validator) FeatureLimit(ctx context.Context, signed *SignedLicense, feature string) (int, bool) {
	result := v.Validate(ctx, signed)
	if !result.IsValid || result.License == nil {
		return 0, false
	}
	raw, ok := result.License.Metadata["limit:"+strings.ToLower(feature)]
	if !ok {
		return 0, false
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return limit, true
}
