package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"costsheet/internal/dataprocessing"
	apierrors "costsheet/internal/errors"
	"costsheet/internal/scraper"
	"costsheet/internal/sheetsapi"
	"costsheet/pkg/contracts/domain"
)

// Steps of an API run.
const (
	StepParseURL    = "parse_url"
	StepFetchValues = "fetch_values"
)

var apiStepProgress = map[string]int{
	StepParseURL:             15,
	StepFetchValues:          60,
	scraper.StepLocateColumn: 85,
	scraper.StepSummarize:    100,
}

// TableFetcher reads one tab of a spreadsheet.
type TableFetcher interface {
	FetchTable(ctx context.Context, ref sheetsapi.SheetRef) (domain.Table, error)
}

// APISource runs extractions through the Sheets API instead of a browser.
type APISource struct {
	fetcher TableFetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewAPISource creates an APISource backed by fetcher.
func NewAPISource(fetcher TableFetcher, logger *slog.Logger) *APISource {
	if logger == nil {
		logger = slog.Default()
	}
	return &APISource{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "api_source")),
		now:     time.Now,
	}
}

// Kind identifies the source.
func (s *APISource) Kind() domain.SourceKind {
	return domain.SourceAPI
}

// Run reads the sheet at target and summarizes its cost column. Like the
// browser pipeline it reports failures in the summary, never as an error.
func (s *APISource) Run(ctx context.Context, target string, reporter scraper.Reporter) (summary domain.CostSummary) {
	if reporter == nil {
		reporter = scraper.NopReporter{}
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "api extraction panicked", slog.Any("panic", r))
			summary = domain.ErrorSummary(domain.SourceAPI, domain.CodeInternal,
				fmt.Sprintf("unexpected failure during extraction: %v", r))
		}
	}()

	var ref sheetsapi.SheetRef
	if err := s.step(ctx, reporter, StepParseURL, func() error {
		var err error
		ref, err = sheetsapi.ParseSheetURL(target)
		return err
	}); err != nil {
		return domain.ErrorSummary(domain.SourceAPI, domain.CodeSourceUnreachable, err.Error())
	}

	var table domain.Table
	if err := s.step(ctx, reporter, StepFetchValues, func() error {
		var err error
		table, err = s.fetcher.FetchTable(ctx, ref)
		return err
	}); err != nil {
		code := domain.CodeSourceUnreachable
		if apierrors.IsType(err, apierrors.ErrTypeSignIn) {
			code = domain.CodeSignInRequired
		}
		return domain.ErrorSummary(domain.SourceAPI, code, err.Error())
	}

	summary, match, colErr := dataprocessing.SummarizeTable(table, "")
	summary.Source = domain.SourceAPI
	if colErr != nil {
		s.report(reporter, scraper.StepLocateColumn, domain.StepCompleted, "no cost column found")
		s.logger.WarnContext(ctx, "cost column not found",
			slog.Any("headers", table.Headers))
		return summary
	}
	s.report(reporter, scraper.StepLocateColumn, domain.StepCompleted,
		fmt.Sprintf("using column %q (%s match)", match.Header, match.Reason))
	s.report(reporter, scraper.StepSummarize, domain.StepCompleted, summary.Message)

	s.logger.InfoContext(ctx, "api extraction finished",
		slog.String("sheet_id", ref.ID),
		slog.String("column", match.Header),
		slog.Int("count", summary.Count),
		slog.Float64("total", summary.Total))
	return summary
}

func (s *APISource) step(ctx context.Context, reporter scraper.Reporter, name string, fn func() error) error {
	s.report(reporter, name, domain.StepRunning, "")
	err := fn()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "api extraction step failed",
			slog.String("step", name),
			slog.String("error", err.Error()))
		s.report(reporter, name, domain.StepFailed, err.Error())
		return err
	}
	s.report(reporter, name, domain.StepCompleted, "")
	return nil
}

func (s *APISource) report(reporter scraper.Reporter, name string, status domain.StepStatus, msg string) {
	reporter.ReportStep(domain.StepRecord{
		Name:     name,
		Status:   status,
		Progress: apiStepProgress[name],
		Message:  msg,
		At:       s.now(),
	})
}
