package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/render"

	"licensegate/internal/errors"
	"licensegate/internal/infrastructure"
	"licensegate/internal/license"
)

// GraceExpiryHeader annotates allowed responses when the entitlement is in
// its grace period, so frontends can surface renewal banners.
const GraceExpiryHeader = "X-License-Grace-Expiry"

// EntitlementSource supplies the current validation result for the
// installation's configured license.
type EntitlementSource interface {
	Entitlement(ctx context.Context) *license.ValidationResult
}

// LicenseGate denies requests when the installation's license does not
// validate. It is a thin adapter: all trust decisions happen inside the
// license validator; the gate only maps the terminal status onto HTTP.
type LicenseGate struct {
	source          EntitlementSource
	logger          *slog.Logger
	excludePaths    []string
	excludePrefixes []string

	// gateCache keeps the last result briefly so a burst of requests does
	// not hammer the entitlement source.
	gateCache struct {
		mu        sync.RWMutex
		result    *license.ValidationResult
		checkedAt time.Time
		ttl       time.Duration
	}
}

// NewLicenseGate creates the gate middleware. Health, metrics and the
// license endpoints themselves are always excluded.
func NewLicenseGate(source EntitlementSource, logger *slog.Logger) *LicenseGate {
	g := &LicenseGate{
		source: source,
		logger: logger.With(slog.String("component", "license_gate")),
		excludePaths: []string{
			"/healthz",
			"/readyz",
			"/metrics",
		},
		excludePrefixes: []string{
			"/api/license/",
		},
	}
	g.gateCache.ttl = time.Minute
	return g
}

// AddExcludePath excludes an exact path from gating.
func (g *LicenseGate) AddExcludePath(path string) {
	g.excludePaths = append(g.excludePaths, path)
}

// AddExcludePrefix excludes a path prefix from gating.
func (g *LicenseGate) AddExcludePrefix(prefix string) {
	g.excludePrefixes = append(g.excludePrefixes, prefix)
}

// SetCacheTTL overrides how long a gate decision is reused.
func (g *LicenseGate) SetCacheTTL(ttl time.Duration) {
	g.gateCache.mu.Lock()
	defer g.gateCache.mu.Unlock()
	g.gateCache.ttl = ttl
}

// InvalidateCache drops the cached gate decision.
func (g *LicenseGate) InvalidateCache() {
	g.gateCache.mu.Lock()
	defer g.gateCache.mu.Unlock()
	g.gateCache.result = nil
	g.gateCache.checkedAt = time.Time{}
}

// Handler returns the middleware handler function.
func (g *LicenseGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.shouldExclude(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		result := g.currentResult(ctx)

		if result == nil || !result.Status.Allows() {
			g.deny(w, r, result)
			return
		}

		if result.IsGracePeriod && result.GracePeriodExpiry != nil {
			w.Header().Set(GraceExpiryHeader, result.GracePeriodExpiry.Format(time.RFC3339))
		}

		next.ServeHTTP(w, r)
	})
}

func (g *LicenseGate) shouldExclude(path string) bool {
	for _, excluded := range g.excludePaths {
		if path == excluded {
			return true
		}
	}
	for _, prefix := range g.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *LicenseGate) currentResult(ctx context.Context) *license.ValidationResult {
	g.gateCache.mu.RLock()
	cached := g.gateCache.result
	fresh := cached != nil && time.Since(g.gateCache.checkedAt) < g.gateCache.ttl
	g.gateCache.mu.RUnlock()

	if fresh {
		return cached
	}

	result := g.source.Entitlement(ctx)

	g.gateCache.mu.Lock()
	g.gateCache.result = result
	g.gateCache.checkedAt = time.Now()
	g.gateCache.mu.Unlock()

	return result
}

func (g *LicenseGate) deny(w http.ResponseWriter, r *http.Request, result *license.ValidationResult) {
	ctx := r.Context()
	traceID := infrastructure.GetTraceID(ctx)

	status := license.StatusNotFound
	if result != nil {
		status = result.Status
	}

	g.logger.WarnContext(ctx, "request denied by license gate",
		slog.String("path", r.URL.Path),
		slog.String("license_status", string(status)),
	)

	instance := fmt.Sprintf("%s#%s", r.URL.Path, traceID)
	problem := errors.LicenseProblem(status, instance).
		WithExtension("trace_id", traceID)
	if status == license.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}

	_ = render.Render(w, r, problem)
}
