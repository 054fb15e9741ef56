package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	licenseErrors "licensegate/internal/errors"
	"licensegate/internal/infrastructure"
	"licensegate/internal/license"
	apiv1 "licensegate/pkg/contracts/api/v1"
)

// validate checks struct tags on bound request bodies.
var validate = validator.New()

// LicenseHandler exposes license validation over HTTP. All trust decisions
// happen in the validator; the handler translates envelopes and statuses.
type LicenseHandler struct {
	validator *license.Validator
	logger    *slog.Logger
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(v *license.Validator, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		validator: v,
		logger:    logger.With(slog.String("handler", "license")),
	}
}

// validateRequest wraps the contract type to implement render.Binder
type validateRequest struct {
	apiv1.LicenseValidateRequest
}

func (req *validateRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

// featureCheckRequest wraps the contract type to implement render.Binder
type featureCheckRequest struct {
	apiv1.FeatureCheckRequest
}

func (req *featureCheckRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

// tierCheckRequest wraps the contract type to implement render.Binder
type tierCheckRequest struct {
	apiv1.TierCheckRequest
}

func (req *tierCheckRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

// cacheInvalidateRequest wraps the contract type to implement render.Binder
type cacheInvalidateRequest struct {
	apiv1.CacheInvalidateRequest
}

func (req *cacheInvalidateRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

// Routes returns a chi router for license endpoints
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/validate", h.Validate)
	r.Post("/feature/{name}", h.CheckFeature)
	r.Post("/tier/{tier}", h.CheckTier)

	r.Get("/cache/stats", h.CacheStats)
	r.Post("/cache/invalidate", h.InvalidateCache)

	return r
}

// Validate handles POST /api/license/validate
func (h *LicenseHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("license-handler")
	start := time.Now()

	ctx, span := tracer.Start(ctx, "license_handler.validate",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/license/validate"),
			attribute.String("component", "license_handler"),
		),
	)
	defer span.End()

	req := &validateRequest{}
	if err := render.Bind(r, req); err != nil {
		h.renderBadRequest(w, r, err)
		return
	}

	signed := toSignedLicense(req.License)
	result := h.validator.Validate(ctx, signed)
	latency := time.Since(start)

	span.SetAttributes(
		attribute.String("license.status", string(result.Status)),
		attribute.Bool("license.valid", result.IsValid),
		attribute.Int64("request.latency_ms", latency.Milliseconds()),
	)

	h.logger.InfoContext(ctx, "license validation completed",
		slog.String("trace_id", infrastructure.GetTraceID(ctx)),
		slog.String("status", string(result.Status)),
		slog.Bool("is_valid", result.IsValid),
		slog.Duration("latency", latency),
	)

	render.JSON(w, r, toValidateResponse(ctx, result))
}

// CheckFeature handles POST /api/license/feature/{name}
func (h *LicenseHandler) CheckFeature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("license-handler")
	feature := chi.URLParam(r, "name")

	ctx, span := tracer.Start(ctx, "license_handler.check_feature",
		trace.WithAttributes(
			attribute.String("http.route", "/api/license/feature/{name}"),
			attribute.String("license.feature", feature),
		),
	)
	defer span.End()

	req := &featureCheckRequest{}
	if err := render.Bind(r, req); err != nil {
		h.renderBadRequest(w, r, err)
		return
	}

	signed := toSignedLicense(req.License)
	result := h.validator.Validate(ctx, signed)
	available := h.validator.IsFeatureAvailable(ctx, signed, feature)

	resp := apiv1.FeatureCheckResponse{
		Feature:   feature,
		Available: available,
		Status:    string(result.Status),
		TraceID:   infrastructure.GetTraceID(ctx),
	}
	if limit, ok := h.validator.FeatureLimit(ctx, signed, feature); ok {
		resp.Limit = &limit
	}

	span.SetAttributes(
		attribute.Bool("license.feature_available", available),
		attribute.String("license.status", string(result.Status)),
	)

	render.JSON(w, r, resp)
}

// CheckTier handles POST /api/license/tier/{tier}
func (h *LicenseHandler) CheckTier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("license-handler")
	tierName := chi.URLParam(r, "tier")

	ctx, span := tracer.Start(ctx, "license_handler.check_tier",
		trace.WithAttributes(
			attribute.String("http.route", "/api/license/tier/{tier}"),
			attribute.String("license.required_tier", tierName),
		),
	)
	defer span.End()

	required, ok := license.ParseTier(tierName)
	if !ok {
		problem := licenseErrors.NewProblemDetails(
			http.StatusBadRequest,
			licenseErrors.TypeValidation,
			"Unknown Tier",
			"tier must be one of Community, Professional, Enterprise, Custom",
			r.URL.Path,
		).WithExtension("trace_id", infrastructure.GetTraceID(ctx))
		_ = render.Render(w, r, problem)
		return
	}

	req := &tierCheckRequest{}
	if err := render.Bind(r, req); err != nil {
		h.renderBadRequest(w, r, err)
		return
	}

	signed := toSignedLicense(req.License)
	result := h.validator.Validate(ctx, signed)
	satisfied := h.validator.SupportsTier(ctx, signed, required)

	resp := apiv1.TierCheckResponse{
		RequiredTier: string(required),
		Satisfied:    satisfied,
		Status:       string(result.Status),
		TraceID:      infrastructure.GetTraceID(ctx),
	}
	if result.License != nil {
		resp.LicenseTier = string(result.License.Tier)
	}

	span.SetAttributes(
		attribute.Bool("license.tier_satisfied", satisfied),
		attribute.String("license.status", string(result.Status)),
	)

	render.JSON(w, r, resp)
}

// CacheStats handles GET /api/license/cache/stats
func (h *LicenseHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.validator.Cache().Stats())
}

// InvalidateCache handles POST /api/license/cache/invalidate
func (h *LicenseHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := &cacheInvalidateRequest{}
	if err := render.Bind(r, req); err != nil {
		h.renderBadRequest(w, r, err)
		return
	}

	scope := "all"
	if req.PublicKeyThumbprint != "" && req.Checksum != "" {
		scope = "entry"
		h.validator.Cache().Invalidate(req.PublicKeyThumbprint + ":" + req.Checksum)
	} else {
		h.validator.Cache().Clear()
	}

	h.logger.InfoContext(ctx, "validation cache invalidated",
		slog.String("trace_id", infrastructure.GetTraceID(ctx)),
		slog.String("scope", scope),
	)

	render.JSON(w, r, apiv1.CacheInvalidateResponse{
		Invalidated: true,
		Scope:       scope,
	})
}

func (h *LicenseHandler) renderBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	h.logger.WarnContext(ctx, "request binding failed",
		slog.String("trace_id", infrastructure.GetTraceID(ctx)),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	problem := licenseErrors.NewProblemDetails(
		http.StatusBadRequest,
		licenseErrors.TypeValidation,
		"Invalid Request",
		err.Error(),
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(ctx))
	_ = render.Render(w, r, problem)
}

// toSignedLicense converts the wire envelope into the validator's input.
func toSignedLicense(env apiv1.LicenseEnvelope) *license.SignedLicense {
	return &license.SignedLicense{
		LicenseData:         env.LicenseData,
		Signature:           env.Signature,
		PublicKeyThumbprint: env.PublicKeyThumbprint,
		Checksum:            env.Checksum,
		FormatVersion:       env.FormatVersion,
	}
}

func toValidateResponse(ctx context.Context, result *license.ValidationResult) apiv1.LicenseValidateResponse {
	resp := apiv1.LicenseValidateResponse{
		TraceID:           infrastructure.GetTraceID(ctx),
		IsValid:           result.IsValid,
		Status:            string(result.Status),
		IsSignatureValid:  result.IsSignatureValid,
		AreDatesValid:     result.AreDatesValid,
		IsGracePeriod:     result.IsGracePeriod,
		GracePeriodExpiry: result.GracePeriodExpiry,
		AvailableFeatures: result.AvailableFeatures,
		Messages:          result.Messages,
	}
	if result.License != nil {
		resp.License = &apiv1.LicenseSummary{
			LicenseID:  result.License.LicenseID,
			ProductID:  result.License.ProductID,
			ConsumerID: maskConsumer(result.License.ConsumerID),
			Tier:       string(result.License.Tier),
			ValidFrom:  result.License.ValidFrom,
			ValidTo:    result.License.ValidTo,
		}
	}
	return resp
}

// maskConsumer hides most of the consumer identifier in API responses.
func maskConsumer(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 4 {
		return "****"
	}
	return id[:4] + strings.Repeat("*", len(id)-4)
}
