package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apierrors "costsheet/internal/errors"
	"costsheet/internal/exporter"
	"costsheet/internal/operations"
	v1 "costsheet/pkg/contracts/api/v1"
	"costsheet/pkg/contracts/domain"
)

// RunManager is the part of operations.Runner the extraction service uses.
type RunManager interface {
	Start(ctx context.Context, kind domain.SourceKind, target string) (domain.Run, error)
	Get(id string) (domain.Run, error)
	List(limit int) []domain.Run
	HasSource(kind domain.SourceKind) bool
}

// ExtractionService starts live runs and serves run history.
type ExtractionService struct {
	runs   RunManager
	config *ConfigService
	logger *slog.Logger
}

// NewExtractionService creates an ExtractionService.
func NewExtractionService(runs RunManager, cfg *ConfigService, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{
		runs:   runs,
		config: cfg,
		logger: logger.With(slog.String("service", "extraction")),
	}
}

// Start begins a live run against the requested URL, falling back to the
// configured sheet. A browser run started while another is active is
// rejected with 409.
func (s *ExtractionService) Start(ctx context.Context, req v1.ExtractionStartRequest) (domain.Run, error) {
	kind := req.SourceKind()
	if !s.runs.HasSource(kind) {
		if kind == domain.SourceAPI {
			return domain.Run{}, ErrAPISourceUnavailable
		}
		return domain.Run{}, apierrors.ErrServiceUnavailable
	}

	target := strings.TrimSpace(req.URL)
	if target == "" && s.config != nil {
		target = s.config.SheetURL()
	}
	if target == "" {
		return domain.Run{}, ErrNoSheetURL
	}

	run, err := s.runs.Start(ctx, kind, target)
	switch {
	case err == nil:
	case errors.Is(err, operations.ErrRunInProgress):
		return domain.Run{}, apierrors.ErrRunInProgress
	case errors.Is(err, operations.ErrShuttingDown):
		return domain.Run{}, apierrors.ErrServiceUnavailable
	default:
		return domain.Run{}, fmt.Errorf("failed to start run: %w", err)
	}

	s.logger.InfoContext(ctx, "extraction started",
		slog.String("run_id", run.ID),
		slog.String("source", string(kind)))
	return run, nil
}

// Get returns one run.
func (s *ExtractionService) Get(id string) (domain.Run, error) {
	run, err := s.runs.Get(id)
	if errors.Is(err, operations.ErrRunNotFound) {
		return domain.Run{}, apierrors.ErrRunNotFound
	}
	return run, err
}

// List returns the most recent runs, newest first.
func (s *ExtractionService) List(limit int) []domain.Run {
	return s.runs.List(limit)
}

// PrepareExport checks that run id exists, has finished and that format is
// known, so the handler can commit headers before streaming the file.
func (s *ExtractionService) PrepareExport(id, format string) (domain.Run, exporter.Format, error) {
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return domain.Run{}, "", apierrors.ErrValidation("format", "format must be one of csv, xlsx, pdf")
	}

	run, err := s.Get(id)
	if err != nil {
		return domain.Run{}, "", err
	}
	if run.Summary == nil {
		return domain.Run{}, "", apierrors.New(http.StatusConflict, apierrors.CodeRunNotFinished, exporter.ErrNoSummary.Error())
	}
	return run, f, nil
}
