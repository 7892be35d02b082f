package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "costsheet/internal/errors"
	"costsheet/internal/exporter"
	"costsheet/internal/infrastructure"
	"costsheet/internal/middleware"
	"costsheet/internal/services"
	v1 "costsheet/pkg/contracts/api/v1"
)

const defaultListLimit = 20

// ExtractionHandler starts live runs and serves their results.
type ExtractionHandler struct {
	service   *services.ExtractionService
	validator *middleware.Validator
	errors    *apierrors.ErrorHandler
	logger    *slog.Logger
}

// NewExtractionHandler creates an ExtractionHandler.
func NewExtractionHandler(service *services.ExtractionService, validator *middleware.Validator, errHandler *apierrors.ErrorHandler, logger *slog.Logger) *ExtractionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionHandler{
		service:   service,
		validator: validator,
		errors:    errHandler,
		logger:    logger.With(slog.String("handler", "extractions")),
	}
}

// Routes returns the /api/extractions routes.
func (h *ExtractionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Start)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/export", h.Export)
	return r
}

// Start handles POST /api/extractions. The body is optional; ?source=api
// overrides the body's source.
func (h *ExtractionHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("extraction-handler").Start(r.Context(), "extraction_handler.start",
		trace.WithAttributes(
			attribute.String("http.route", "/api/extractions"),
			attribute.String("request_id", middleware.GetRequestID(r.Context())),
		),
	)
	defer span.End()

	var req v1.ExtractionStartRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		h.errors.HandleError(w, r, err)
		return
	}
	if src := r.URL.Query().Get("source"); src != "" {
		req.Source = src
		if err := h.validator.ValidateStruct(req); err != nil {
			span.SetStatus(codes.Error, "invalid source")
			h.errors.HandleError(w, r, err)
			return
		}
	}

	run, err := h.service.Start(ctx, req)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		h.errors.HandleError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.String("run.id", run.ID),
		attribute.String("run.source", string(run.Source)),
	)
	h.logger.InfoContext(ctx, "extraction accepted",
		slog.String("run_id", run.ID),
		slog.String("source", string(run.Source)),
		slog.String("otel_trace_id", infrastructure.TraceIDFromContext(ctx)))
	w.Header().Set("Location", "/api/extractions/"+run.ID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, run)
}

// List handles GET /api/extractions?limit=N
func (h *ExtractionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errors.HandleError(w, r, apierrors.ErrValidation("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	runs := h.service.List(limit)
	render.JSON(w, r, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Get handles GET /api/extractions/{id}
func (h *ExtractionHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// Export handles GET /api/extractions/{id}/export?format=csv|xlsx|pdf
func (h *ExtractionHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(exporter.FormatCSV)
	}

	run, f, err := h.service.PrepareExport(chi.URLParam(r, "id"), format)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.FileName(run)+`"`)
	if err := exporter.Export(w, run, f); err != nil {
		// Part of the file may already be written.
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("run_id", run.ID),
			slog.String("format", string(f)),
			slog.String("error", err.Error()))
	}
}
