package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"costsheet/internal/dataprocessing"
	apierrors "costsheet/internal/errors"
	"costsheet/internal/infrastructure"
	"costsheet/internal/validation"
	"costsheet/pkg/contracts/domain"
)

// RunRecorder stores runs computed outside the live pipeline.
type RunRecorder interface {
	Record(kind domain.SourceKind, target string, summary domain.CostSummary, started time.Time) (domain.Run, error)
}

// UploadResult is the run recorded for an upload. When no cost column
// could be resolved, Columns and NumericColumns list what the caller can
// pick from on a retry.
type UploadResult struct {
	domain.Run
	Columns        []string `json:"columns,omitempty"`
	NumericColumns []string `json:"numeric_columns,omitempty"`
}

// SummaryService summarizes uploaded spreadsheets and raw value lists.
type SummaryService struct {
	validator *validation.FileValidator
	recorder  RunRecorder
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewSummaryService creates a SummaryService. recorder may be nil, in which
// case results are returned but not kept in the run history.
func NewSummaryService(validator *validation.FileValidator, recorder RunRecorder, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryService{
		validator: validator,
		recorder:  recorder,
		metrics:   metrics,
		logger:    logger.With(slog.String("service", "summary")),
		now:       time.Now,
	}
}

// SummarizeUpload parses an uploaded file and summarizes its cost column,
// or column when it is not empty. size may be -1 when unknown.
func (s *SummaryService) SummarizeUpload(ctx context.Context, name string, size int64, r io.Reader, column string) (UploadResult, error) {
	started := s.now()
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")

	if err := s.validator.ValidateUpload(name, size); err != nil {
		infrastructure.RecordUpload(ctx, s.metrics, format, "rejected")
		return UploadResult{}, err
	}

	if limit := s.validator.MaxBytes(); limit > 0 {
		r = io.LimitReader(r, limit)
	}
	table, err := dataprocessing.ParseReader(filepath.Base(name), r)
	if err != nil {
		infrastructure.RecordUpload(ctx, s.metrics, format, "unreadable")
		s.logger.WarnContext(ctx, "failed to parse upload",
			slog.String("file", filepath.Base(name)),
			slog.String("error", err.Error()))
		return UploadResult{}, err
	}

	result, err := s.summarizeTable(ctx, filepath.Base(name), table, column, started)
	if err != nil {
		infrastructure.RecordUpload(ctx, s.metrics, format, "rejected")
		return UploadResult{}, err
	}
	infrastructure.RecordUpload(ctx, s.metrics, format, string(result.Summary.Status))
	return result, nil
}

// SummarizeFile summarizes a local file, as the CLI does.
func (s *SummaryService) SummarizeFile(ctx context.Context, path, column string) (UploadResult, error) {
	started := s.now()
	if err := s.validator.ValidateFile(path); err != nil {
		return UploadResult{}, err
	}

	table, err := dataprocessing.ParseFile(path)
	if err != nil {
		return UploadResult{}, err
	}
	return s.summarizeTable(ctx, filepath.Base(path), table, column, started)
}

// SummarizeValues coerces raw cells and aggregates them. Cells that are not
// numbers are skipped.
func (s *SummaryService) SummarizeValues(ctx context.Context, values []string) (domain.Run, error) {
	started := s.now()
	summary := dataprocessing.SummarizeCells(values)
	summary.Source = domain.SourceValues

	s.logger.DebugContext(ctx, "summarized raw values",
		slog.Int("cells", len(values)),
		slog.Int("count", summary.Count))
	return s.record(ctx, domain.SourceValues, "", summary, started)
}

func (s *SummaryService) summarizeTable(ctx context.Context, name string, table domain.Table, column string, started time.Time) (UploadResult, error) {
	summary, match, err := dataprocessing.SummarizeTable(table, column)
	if errors.Is(err, dataprocessing.ErrUnknownColumn) {
		return UploadResult{}, apierrors.NewColumnNotFoundError(err.Error(), table.Headers, dataprocessing.NumericColumns(table))
	}
	summary.Source = domain.SourceUpload

	run, recErr := s.record(ctx, domain.SourceUpload, name, summary, started)
	if recErr != nil {
		return UploadResult{}, recErr
	}
	result := UploadResult{Run: run}

	if err != nil {
		result.Columns = append([]string{}, table.Headers...)
		result.NumericColumns = dataprocessing.NumericColumns(table)
		s.logger.InfoContext(ctx, "no cost column in upload",
			slog.String("file", name),
			slog.Any("headers", table.Headers))
		return result, nil
	}

	s.logger.InfoContext(ctx, "upload summarized",
		slog.String("file", name),
		slog.String("column", match.Header),
		slog.String("reason", string(match.Reason)),
		slog.Int("count", summary.Count),
		slog.Float64("total", summary.Total))
	return result, nil
}

func (s *SummaryService) record(ctx context.Context, kind domain.SourceKind, target string, summary domain.CostSummary, started time.Time) (domain.Run, error) {
	completed := s.now()
	infrastructure.RecordRunMetrics(ctx, s.metrics, string(kind), string(summary.Status), completed.Sub(started), summary.Count)

	if s.recorder != nil {
		return s.recorder.Record(kind, target, summary, started)
	}

	status := domain.RunCompleted
	if summary.Status == domain.StatusError {
		status = domain.RunFailed
	}
	return domain.Run{
		ID:          uuid.NewString(),
		Source:      kind,
		Target:      target,
		Status:      status,
		Progress:    100,
		Message:     summary.Message,
		Steps:       []domain.StepRecord{},
		Summary:     &summary,
		CreatedAt:   started,
		StartedAt:   &started,
		CompletedAt: &completed,
	}, nil
}
