package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"costsheet/internal/services"
)

// HealthHandler serves the probe endpoints under /api/health.
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Routes mounts the probes. Version lives at /api/version and is mounted
// by the caller.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(noStore)
	r.Get("/", h.probe("ok", h.service.HealthCheck))
	r.Get("/ready", h.probe("ready", h.service.ReadinessCheck))
	r.Get("/live", h.probe("alive", h.service.LivenessCheck))
	return r
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}

// probe renders a check, answering 503 when it does not report want.
func (h *HealthHandler) probe(want string, check func(context.Context) services.HealthStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := check(r.Context())
		if status.Status != want {
			h.logger.WarnContext(r.Context(), "probe failed",
				slog.String("path", r.URL.Path),
				slog.String("status", status.Status),
				slog.Any("services", status.Services))
			render.Status(r, http.StatusServiceUnavailable)
		}
		render.JSON(w, r, status)
	}
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
