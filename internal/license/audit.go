package license

import (
	"context"
	"log/slog"
	"time"
)

// AuditEntry is one structured record summarizing a validation call. It is a
// side-channel notification for the audit subsystem, not part of the
// validation decision.
type AuditEntry struct {
	ValidationID string
	Status       ValidationStatus
	IsValid      bool
	SignatureOK  bool
	DatesOK      bool
	GracePeriod  bool
	FeatureCount int
	FromCache    bool
	LicenseID    string
	Thumbprint   string
	Duration     time.Duration
}

// auditLogger emits validation audit records through slog.
type auditLogger struct {
	slog *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &auditLogger{
		slog: logger.With(slog.String("component", "license_audit")),
	}
}

// Log writes one audit record. Identity fields are masked so audit output
// never leaks a full license id.
func (a *auditLogger) Log(ctx context.Context, entry AuditEntry) {
	if a == nil || a.slog == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("validation_id", entry.ValidationID),
		slog.String("status", string(entry.Status)),
		slog.Bool("is_valid", entry.IsValid),
		slog.Bool("signature_valid", entry.SignatureOK),
		slog.Bool("dates_valid", entry.DatesOK),
		slog.Bool("grace_period", entry.GracePeriod),
		slog.Int("feature_count", entry.FeatureCount),
		slog.Bool("from_cache", entry.FromCache),
		slog.Duration("duration", entry.Duration),
	}
	if entry.LicenseID != "" {
		attrs = append(attrs, slog.String("license_id", maskIdentifier(entry.LicenseID)))
	}
	if entry.Thumbprint != "" {
		attrs = append(attrs, slog.String("key_thumbprint", maskIdentifier(entry.Thumbprint)))
	}

	level := slog.LevelInfo
	if !entry.IsValid {
		level = slog.LevelWarn
	}
	a.slog.LogAttrs(ctx, level, "license validation", attrs...)
}

// maskIdentifier keeps the first and last four characters of an identifier.
func maskIdentifier(id string) string {
	if len(id) <= 8 {
		return "****"
	}
	return id[:4] + "****" + id[len(id)-4:]
}
