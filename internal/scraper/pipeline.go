package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"costsheet/internal/config"
	"costsheet/internal/dataprocessing"
	"costsheet/internal/infrastructure"
	"costsheet/internal/sheetsapi"
	"costsheet/pkg/contracts/domain"
)

// Step names, in execution order.
const (
	StepLaunch       = "launch_browser"
	StepNavigate     = "navigate"
	StepCheckSession = "check_session"
	StepWaitRender   = "wait_for_render"
	StepReadGrid     = "read_grid"
	StepLocateColumn = "locate_cost_column"
	StepSummarize    = "summarize"
)

var stepProgress = map[string]int{
	StepLaunch:       10,
	StepNavigate:     30,
	StepCheckSession: 45,
	StepWaitRender:   60,
	StepReadGrid:     75,
	StepLocateColumn: 85,
	StepSummarize:    100,
}

// ErrSignInRequired is returned by the session check when the sheet
// redirected to Google's sign-in page.
var ErrSignInRequired = errors.New("google sign-in required")

// Extractor runs the live pipeline: one browser per run, released on every
// exit path.
type Extractor struct {
	browser Browser
	cfg     config.BrowserConfig
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithMetrics records per-step durations.
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithSleep replaces the wait used for render and hold-open delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Extractor) { e.sleep = sleep }
}

// NewExtractor creates an Extractor.
func NewExtractor(browser Browser, cfg config.BrowserConfig, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		browser: browser,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "live_extractor")),
		sleep:   sleepContext,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Kind identifies the browser source.
func (e *Extractor) Kind() domain.SourceKind {
	return domain.SourceBrowser
}

// Run extracts and summarizes the cost column of the sheet at sheetURL.
// It never returns an error: failures are encoded in the summary status and
// error code, and panics are recovered into an internal error summary.
func (e *Extractor) Run(ctx context.Context, sheetURL string, reporter Reporter) (summary domain.CostSummary) {
	if reporter == nil {
		reporter = NopReporter{}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "live extraction panicked", slog.Any("panic", r))
			summary = domain.ErrorSummary(domain.SourceBrowser, domain.CodeInternal,
				fmt.Sprintf("unexpected failure during extraction: %v", r))
		}
	}()

	target := e.targetURL(sheetURL)
	if target == "" {
		return domain.ErrorSummary(domain.SourceBrowser, domain.CodeSourceUnreachable, "no sheet URL configured")
	}

	var (
		page    Page
		release func()
	)
	if err := e.step(ctx, reporter, StepLaunch, func() error {
		var err error
		page, release, err = e.browser.Open(ctx)
		return err
	}); err != nil {
		if release != nil {
			release()
		}
		return domain.ErrorSummary(domain.SourceBrowser, domain.CodeSourceUnreachable,
			fmt.Sprintf("failed to launch browser: %v", err))
	}
	defer e.close(ctx, release)

	if err := e.step(ctx, reporter, StepNavigate, func() error {
		return page.Navigate(ctx, target)
	}); err != nil {
		return domain.ErrorSummary(domain.SourceBrowser, domain.CodeSourceUnreachable,
			fmt.Sprintf("failed to load sheet: %v", err))
	}

	if err := e.step(ctx, reporter, StepCheckSession, func() error {
		loc, err := page.Location(ctx)
		if err != nil {
			return err
		}
		if isSignInPage(loc) {
			return ErrSignInRequired
		}
		return nil
	}); err != nil {
		if errors.Is(err, ErrSignInRequired) {
			return domain.ErrorSummary(domain.SourceBrowser, domain.CodeSignInRequired,
				"the browser profile is not signed in to Google; sign in once with this profile and retry")
		}
		return domain.ErrorSummary(domain.SourceBrowser, domain.CodeSourceUnreachable,
			fmt.Sprintf("failed to inspect page: %v", err))
	}

	if err := e.step(ctx, reporter, StepWaitRender, func() error {
		return e.sleep(ctx, e.cfg.RenderWait)
	}); err != nil {
		return domain.ErrorSummary(domain.SourceBrowser, domain.CodeSourceUnreachable,
			fmt.Sprintf("run cancelled while waiting for the sheet: %v", err))
	}

	var table domain.Table
	if err := e.step(ctx, reporter, StepReadGrid, func() error {
		var err error
		table, err = page.ReadTable(ctx)
		return err
	}); err != nil {
		return domain.ErrorSummary(domain.SourceBrowser, domain.CodeSourceUnreachable,
			fmt.Sprintf("failed to read sheet: %v", err))
	}

	summary, match, colErr := dataprocessing.SummarizeTable(table, "")
	e.record(ctx, reporter, StepLocateColumn, domain.StepCompleted, locateMessage(match, colErr), 0, true)
	if colErr != nil {
		e.logger.WarnContext(ctx, "cost column not found",
			slog.Any("headers", table.Headers))
		summary.Source = domain.SourceBrowser
		return summary
	}

	summary.Source = domain.SourceBrowser
	summary.Column = match.Header
	e.record(ctx, reporter, StepSummarize, domain.StepCompleted, summary.Message, 0, true)

	e.logger.InfoContext(ctx, "live extraction finished",
		slog.String("status", string(summary.Status)),
		slog.String("column", match.Header),
		slog.Int("count", summary.Count),
		slog.Float64("total", summary.Total))
	return summary
}

func (e *Extractor) targetURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if e.cfg.HTMLView {
		if ref, err := sheetsapi.ParseSheetURL(raw); err == nil {
			return ref.HTMLViewURL()
		}
	}
	return raw
}

// step reports the start and end of fn and records its duration.
func (e *Extractor) step(ctx context.Context, reporter Reporter, name string, fn func() error) error {
	e.report(reporter, name, domain.StepRunning, "")
	start := e.now()
	err := fn()
	if err == nil {
		err = ctx.Err()
	}
	elapsed := e.now().Sub(start)

	if err != nil {
		e.logger.ErrorContext(ctx, "live extraction step failed",
			slog.String("step", name),
			slog.String("error", err.Error()))
		e.record(ctx, reporter, name, domain.StepFailed, err.Error(), elapsed, false)
		return err
	}

	e.logger.DebugContext(ctx, "live extraction step completed",
		slog.String("step", name),
		slog.Duration("duration", elapsed))
	e.record(ctx, reporter, name, domain.StepCompleted, "", elapsed, true)
	return nil
}

func (e *Extractor) record(ctx context.Context, reporter Reporter, name string, status domain.StepStatus, msg string, elapsed time.Duration, ok bool) {
	infrastructure.RecordStepMetrics(ctx, e.metrics, name, elapsed, ok)
	e.report(reporter, name, status, msg)
}

func (e *Extractor) report(reporter Reporter, name string, status domain.StepStatus, msg string) {
	reporter.ReportStep(domain.StepRecord{
		Name:     name,
		Status:   status,
		Progress: stepProgress[name],
		Message:  msg,
		At:       e.now(),
	})
}

// close keeps a visible browser on screen for HoldOpen before releasing it.
func (e *Extractor) close(ctx context.Context, release func()) {
	if hold := e.cfg.HoldOpenFor(); hold > 0 {
		_ = e.sleep(ctx, hold)
	}
	release()
}

func locateMessage(match domain.ColumnMatch, err error) string {
	if err != nil {
		return "no cost column found"
	}
	return fmt.Sprintf("using column %q (%s match)", match.Header, match.Reason)
}

func isSignInPage(loc string) bool {
	return strings.Contains(loc, "accounts.google.com") || strings.Contains(loc, "ServiceLogin")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
