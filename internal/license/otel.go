package license

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// TracerName identifies validator spans.
	TracerName = "license-validator"
	// MeterName identifies validator metrics.
	MeterName = "license-validator"
)

// ValidatorMetrics holds validator-specific OpenTelemetry metrics.
type ValidatorMetrics struct {
	ValidationAttempts    metric.Int64Counter
	ValidationsByStatus   metric.Int64Counter
	ValidationDuration    metric.Float64Histogram
	ValidationCacheHits   metric.Int64Counter
	ValidationCacheMisses metric.Int64Counter
	SignatureFailures     metric.Int64Counter
	DecodeFailures        metric.Int64Counter
}

// InitializeValidatorMetrics creates all validator metrics against the given
// meter.
func InitializeValidatorMetrics(meter metric.Meter) (*ValidatorMetrics, error) {
	m := &ValidatorMetrics{}

	var err error
	if m.ValidationAttempts, err = meter.Int64Counter(
		"license_validation_attempts_total",
		metric.WithDescription("Total number of license validation calls"),
	); err != nil {
		return nil, fmt.Errorf("create validation attempts counter: %w", err)
	}

	if m.ValidationsByStatus, err = meter.Int64Counter(
		"license_validations_by_status_total",
		metric.WithDescription("Validation outcomes partitioned by terminal status"),
	); err != nil {
		return nil, fmt.Errorf("create validations by status counter: %w", err)
	}

	if m.ValidationDuration, err = meter.Float64Histogram(
		"license_validation_duration_seconds",
		metric.WithDescription("Duration of license validation calls"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create validation duration histogram: %w", err)
	}

	if m.ValidationCacheHits, err = meter.Int64Counter(
		"license_validation_cache_hits_total",
		metric.WithDescription("Validation results served from the cache"),
	); err != nil {
		return nil, fmt.Errorf("create cache hits counter: %w", err)
	}

	if m.ValidationCacheMisses, err = meter.Int64Counter(
		"license_validation_cache_misses_total",
		metric.WithDescription("Validation calls that missed the cache"),
	); err != nil {
		return nil, fmt.Errorf("create cache misses counter: %w", err)
	}

	if m.SignatureFailures, err = meter.Int64Counter(
		"license_signature_failures_total",
		metric.WithDescription("Signature verifications that failed"),
	); err != nil {
		return nil, fmt.Errorf("create signature failures counter: %w", err)
	}

	if m.DecodeFailures, err = meter.Int64Counter(
		"license_decode_failures_total",
		metric.WithDescription("License payloads that failed to decode"),
	); err != nil {
		return nil, fmt.Errorf("create decode failures counter: %w", err)
	}

	return m, nil
}

// recordValidation records the metrics for one completed validation call.
func (m *ValidatorMetrics) recordValidation(ctx context.Context, status ValidationStatus, fromCache bool, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.ValidationAttempts.Add(ctx, 1)
	m.ValidationsByStatus.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(status)),
	))
	m.ValidationDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.Bool("from_cache", fromCache),
	))

	if fromCache {
		m.ValidationCacheHits.Add(ctx, 1)
	} else {
		m.ValidationCacheMisses.Add(ctx, 1)
	}

	switch status {
	case StatusInvalid:
		m.SignatureFailures.Add(ctx, 1)
	case StatusCorrupted:
		m.DecodeFailures.Add(ctx, 1)
	}
}
