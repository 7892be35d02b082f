package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "costsheet/internal/errors"
	"costsheet/internal/middleware"
	"costsheet/internal/services"
	v1 "costsheet/pkg/contracts/api/v1"
)

// multipartOverhead is allowed on top of the file size limit for the form
// boundaries and the column field.
const multipartOverhead = 64 << 10

// SummaryHandler summarizes uploaded files and raw value lists.
type SummaryHandler struct {
	service   *services.SummaryService
	validator *middleware.Validator
	errors    *apierrors.ErrorHandler
	maxBytes  int64
	logger    *slog.Logger
}

// NewSummaryHandler creates a SummaryHandler. maxBytes bounds the uploaded
// file; 0 disables the request body cap.
func NewSummaryHandler(service *services.SummaryService, validator *middleware.Validator, errHandler *apierrors.ErrorHandler, maxBytes int64, logger *slog.Logger) *SummaryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryHandler{
		service:   service,
		validator: validator,
		errors:    errHandler,
		maxBytes:  maxBytes,
		logger:    logger.With(slog.String("handler", "summaries")),
	}
}

// Routes returns the /api/summaries routes.
func (h *SummaryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	r.Post("/values", h.Values)
	return r
}

// Upload handles POST /api/summaries with a multipart "file" field and an
// optional "column" field naming the column to sum.
func (h *SummaryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errors.HandleError(w, r, apierrors.ErrFileTooLarge)
			return
		}
		h.errors.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errors.HandleError(w, r, apierrors.NewWithDetails(http.StatusBadRequest, apierrors.CodeMissingFile,
			"No file was uploaded", map[string]string{"field": "file"}))
		return
	}
	defer file.Close()

	result, err := h.service.SummarizeUpload(r.Context(), header.Filename, header.Size, file, r.FormValue("column"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "upload summarized",
		slog.String("file", header.Filename),
		slog.String("run_id", result.ID),
		slog.String("status", string(result.Summary.Status)))
	render.JSON(w, r, result)
}

// Values handles POST /api/summaries/values
func (h *SummaryHandler) Values(w http.ResponseWriter, r *http.Request) {
	var req v1.SummarizeValuesRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	run, err := h.service.SummarizeValues(r.Context(), req.Cells())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}
