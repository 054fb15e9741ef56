package api

import "time"

// License API Responses

// LicenseValidateResponse represents the outcome of a license validation
type LicenseValidateResponse struct {
	IsValid           bool       `json:"is_valid"`
	Status            string     `json:"status"`
	IsSignatureValid  bool       `json:"is_signature_valid"`
	AreDatesValid     bool       `json:"are_dates_valid"`
	IsGracePeriod     bool       `json:"is_grace_period"`
	GracePeriodExpiry *time.Time `json:"grace_period_expiry,omitempty"`
	AvailableFeatures []string   `json:"available_features,omitempty"`
	Messages          []string   `json:"messages,omitempty"`
	License           *LicenseSummary `json:"license,omitempty"`
	TraceID           string     `json:"trace_id,omitempty"`
}

// LicenseSummary is the subset of license content exposed over the API
type LicenseSummary struct {
	LicenseID  string    `json:"license_id"`
	ProductID  string    `json:"product_id"`
	ConsumerID string    `json:"consumer_id,omitempty"`
	Tier       string    `json:"tier"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidTo    time.Time `json:"valid_to"`
}

// FeatureCheckResponse represents the outcome of a feature check
type FeatureCheckResponse struct {
	Feature   string `json:"feature"`
	Available bool   `json:"available"`
	Status    string `json:"status"`
	Limit     *int   `json:"limit,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// TierCheckResponse represents the outcome of a tier check
type TierCheckResponse struct {
	RequiredTier string `json:"required_tier"`
	LicenseTier  string `json:"license_tier,omitempty"`
	Satisfied    bool   `json:"satisfied"`
	Status       string `json:"status"`
	TraceID      string `json:"trace_id,omitempty"`
}

// CacheStatsResponse represents validation cache statistics
type CacheStatsResponse struct {
	Entries    int     `json:"entries"`
	MaxSize    int     `json:"max_size"`
	HitCount   int64   `json:"hit_count"`
	MissCount  int64   `json:"miss_count"`
	HitRatio   float64 `json:"hit_ratio"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// CacheInvalidateResponse acknowledges a cache invalidation
type CacheInvalidateResponse struct {
	Invalidated bool   `json:"invalidated"`
	Scope       string `json:"scope"`
}

// Health API Responses

// HealthResponse represents a liveness or readiness probe result
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
