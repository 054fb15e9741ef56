package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"licensegate/internal/config"
	"licensegate/internal/infrastructure"
	"licensegate/internal/license"
	custommw "licensegate/internal/middleware"
	handlers "licensegate/internal/transport/http"
	"licensegate/pkg/contracts"
)

// Application is the dependency container for the license gate service.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Router    *chi.Mux
	Server    *http.Server
	Validator *license.Validator
	OTel      *infrastructure.OTelProviders
}

// New builds the application from configuration. Construction fails when the
// trust anchor is missing or unparseable; a service without a valid public
// key must not come up.
func New(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", contracts.Version),
		slog.Int("port", cfg.Server.Port))

	ctx := context.Background()
	otelProviders, err := infrastructure.InitializeOTel(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	publicKey, err := cfg.License.ResolvePublicKey()
	if err != nil {
		return nil, fmt.Errorf("resolve trust anchor: %w", err)
	}

	validator, err := license.NewValidator(publicKey, cfg.License.Validation.Options(), logger)
	if err != nil {
		return nil, fmt.Errorf("construct license validator: %w", err)
	}

	tierPolicy, err := cfg.License.ParseTierPolicy()
	if err != nil {
		return nil, err
	}
	validator.SetTierPolicy(tierPolicy)

	if otelProviders.Meter != nil {
		metrics, err := license.InitializeValidatorMetrics(otelProviders.Meter)
		if err != nil {
			return nil, fmt.Errorf("initialize validator metrics: %w", err)
		}
		validator.SetMetrics(metrics)
	}

	a := &Application{
		Config:    cfg,
		Logger:    logger,
		Validator: validator,
		OTel:      otelProviders,
	}
	a.setupRouter()
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))

	if a.Config.Server.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			a.Config.Server.RateLimit.RPS,
			a.Config.Server.RateLimit.Burst,
			a.Logger,
		)
		r.Use(limiter.Handler)
	}

	healthHandler := handlers.NewHealthHandler(a.Validator, a.Logger)
	r.Get("/healthz", healthHandler.Liveness)
	r.Get("/readyz", healthHandler.Readiness)

	if a.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTel.PrometheusHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/version", healthHandler.Version)
		r.Mount("/license", handlers.NewLicenseHandler(a.Validator, a.Logger).Routes())
	})

	a.Router = r
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails. Shutdown is graceful within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	return a.Stop()
}

// Stop gracefully shuts the application down.
func (a *Application) Stop() error {
	a.Logger.Info("application stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		firstErr = fmt.Errorf("http server shutdown: %w", err)
	}

	a.Validator.Close()

	if a.OTel != nil {
		if err := a.OTel.Shutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("telemetry shutdown: %w", err)
		}
	}

	if firstErr != nil {
		return firstErr
	}
	a.Logger.Info("application stopped")
	return nil
}
