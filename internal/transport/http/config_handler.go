package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "costsheet/internal/errors"
	"costsheet/internal/middleware"
	"costsheet/internal/services"
	v1 "costsheet/pkg/contracts/api/v1"
)

// ConfigHandler serves the dashboard's configuration panel.
type ConfigHandler struct {
	service   *services.ConfigService
	validator *middleware.Validator
	errors    *apierrors.ErrorHandler
	logger    *slog.Logger
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(service *services.ConfigService, validator *middleware.Validator, errHandler *apierrors.ErrorHandler, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		service:   service,
		validator: validator,
		errors:    errHandler,
		logger:    logger.With(slog.String("handler", "config")),
	}
}

// Routes returns the /api/config routes.
func (h *ConfigHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.Status)
	r.Put("/sheet-url", h.SaveSheetURL)
	return r
}

// Status handles GET /api/config/status
func (h *ConfigHandler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status())
}

// SaveSheetURL handles PUT /api/config/sheet-url
func (h *ConfigHandler) SaveSheetURL(w http.ResponseWriter, r *http.Request) {
	var req v1.SaveSheetURLRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	status, err := h.service.SaveSheetURL(r.Context(), req.URL)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}
