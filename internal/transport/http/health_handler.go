package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"licensegate/internal/license"
	"licensegate/pkg/contracts"
	apiv1 "licensegate/pkg/contracts/api/v1"
)

// HealthHandler handles liveness and readiness probes
type HealthHandler struct {
	validator *license.Validator
	logger    *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(v *license.Validator, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		validator: v,
		logger:    logger.With(slog.String("handler", "health")),
	}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, apiv1.HealthResponse{
		Status:    "ok",
		Version:   contracts.Version,
		Timestamp: time.Now().UTC(),
	})
}

// Readiness handles GET /readyz. The service is ready once the trust anchor
// is loaded; a validator with no thumbprint means construction never
// finished.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"trust_anchor": "ok"}
	status := "ok"
	code := http.StatusOK

	if h.validator == nil || h.validator.Thumbprint() == "" {
		checks["trust_anchor"] = "missing"
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	render.Status(r, code)
	render.JSON(w, r, apiv1.HealthResponse{
		Status:    status,
		Version:   contracts.Version,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}
