package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costsheet/internal/config"
	apierrors "costsheet/internal/errors"
	"costsheet/internal/middleware"
	"costsheet/internal/operations"
	"costsheet/internal/scraper"
	"costsheet/internal/services"
	"costsheet/internal/shared/testutil"
	"costsheet/internal/validation"
	"costsheet/pkg/contracts/domain"
)

const testSheetURL = "https://docs.google.com/spreadsheets/d/abc123/edit#gid=0"

type stubSource struct{}

func (stubSource) Kind() domain.SourceKind { return domain.SourceBrowser }

func (stubSource) Run(_ context.Context, _ string, reporter scraper.Reporter) domain.CostSummary {
	reporter.ReportStep(domain.StepRecord{Name: scraper.StepNavigate, Status: domain.StepCompleted, Progress: 30})
	avg, maximum := 416.8333333333333, 900.0
	return domain.CostSummary{
		Status:  domain.StatusSuccess,
		Total:   1250.5,
		Count:   3,
		Average: &avg,
		Maximum: &maximum,
		Message: "Successfully calculated total from 3 cost entries",
		Values:  []float64{100, 250.5, 900},
		Column:  "Cost",
		Source:  domain.SourceBrowser,
	}
}

type testEnv struct {
	router  chi.Router
	runner  *operations.Runner
	envFile string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default()
	cfg.Sheet.URL = testSheetURL
	cfg.EnvFile = filepath.Join(t.TempDir(), ".env")
	cfg.Upload.MaxBytes = 1024
	t.Setenv(config.EnvSheetURL, testSheetURL)

	runner := operations.NewRunner(operations.NewMemoryRunStore(20), nil, nil, logger,
		operations.RunnerConfig{Timeout: 5 * time.Second}, stubSource{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Shutdown(ctx)
	})

	configSvc := services.NewConfigService(cfg, logger)
	validator := middleware.NewValidator()
	errHandler := apierrors.NewErrorHandler(logger, false)
	fileValidator := validation.NewFileValidator(cfg.Upload.MaxBytes, cfg.Upload.AllowedExtensions, logger)

	health := NewHealthHandler(services.NewHealthService(nil, runner, configSvc, logger), logger)
	extraction := NewExtractionHandler(services.NewExtractionService(runner, configSvc, logger), validator, errHandler, logger)
	summary := NewSummaryHandler(services.NewSummaryService(fileValidator, runner, nil, logger), validator, errHandler, cfg.Upload.MaxBytes, logger)
	cfgHandler := NewConfigHandler(configSvc, validator, errHandler, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/health", health.Routes())
	r.Get("/api/version", health.Version)
	r.Mount("/api/config", cfgHandler.Routes())
	r.Mount("/api/extractions", extraction.Routes())
	r.Mount("/api/summaries", summary.Routes())
	r.Get("/", ServeDashboard(logger))

	return &testEnv{router: r, runner: runner, envFile: cfg.EnvFile}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func multipartBody(t *testing.T, filename, content, column string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	if column != "" {
		require.NoError(t, mw.WriteField("column", column))
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/health/live", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// No websocket hub in this router, so readiness reports not_ready.
	rec = env.do(t, http.MethodGet, "/api/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/version", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"api_version":"v1"`)
}

func TestConfigEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/config/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status services.ConfigStatus
	decode(t, rec, &status)
	assert.True(t, status.SheetConfigured)
	assert.Equal(t, "abc123", status.SheetID)

	rec = env.do(t, http.MethodPut, "/api/config/sheet-url", []byte(`{"url":"https://example.com/x"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	newURL := "https://docs.google.com/spreadsheets/d/xyz789/edit"
	rec = env.do(t, http.MethodPut, "/api/config/sheet-url", []byte(`{"url":"`+newURL+`"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &status)
	assert.Equal(t, "xyz789", status.SheetID)
	assert.FileExists(t, env.envFile)
}

func TestExtractionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/extractions", nil, "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var run domain.Run
	decode(t, rec, &run)
	assert.Equal(t, "/api/extractions/"+run.ID, rec.Header().Get("Location"))

	require.Eventually(t, func() bool {
		got, err := env.runner.Get(run.ID)
		return err == nil && got.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)

	rec = env.do(t, http.MethodGet, "/api/extractions/"+run.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &run)
	assert.Equal(t, domain.RunCompleted, run.Status)
	require.NotNil(t, run.Summary)
	assert.InDelta(t, 1250.5, run.Summary.Total, 1e-9)
	assert.Equal(t, testSheetURL, run.Target)

	rec = env.do(t, http.MethodGet, "/api/extractions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Runs  []domain.Run `json:"runs"`
		Count int          `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = env.do(t, http.MethodGet, "/api/extractions/"+run.ID+"/export?format=csv", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cost-summary-")
	assert.Contains(t, rec.Body.String(), "Total expense,1250.50")

	rec = env.do(t, http.MethodGet, "/api/extractions/"+run.ID+"/export?format=docx", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractionErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/extractions?source=api", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "API_SOURCE_UNAVAILABLE")

	rec = env.do(t, http.MethodPost, "/api/extractions?source=ftp", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/extractions", []byte(`{"url":"not a url"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/extractions/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "RUN_NOT_FOUND")

	rec = env.do(t, http.MethodGet, "/api/extractions?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadSummary(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "expenses.csv", "Item,Cost\npaper,100\nink,250.50\ndesk,900\n", "")
	rec := env.do(t, http.MethodPost, "/api/summaries", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result services.UploadResult
	decode(t, rec, &result)
	require.NotNil(t, result.Summary)
	assert.InDelta(t, 1250.5, result.Summary.Total, 1e-9)
	assert.Equal(t, domain.SourceUpload, result.Source)

	_, err := env.runner.Get(result.ID)
	assert.NoError(t, err, "upload runs are kept in history")
}

func TestUploadWithoutCostColumn(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "notes.csv", "Item,Note\npaper,bulk\n", "")
	rec := env.do(t, http.MethodPost, "/api/summaries", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)

	var result services.UploadResult
	decode(t, rec, &result)
	assert.Equal(t, domain.StatusEmpty, result.Summary.Status)
	assert.Equal(t, []string{"Item", "Note"}, result.Columns)

	body, ct = multipartBody(t, "notes.csv", "Item,Note\npaper,bulk\n", "Price")
	rec = env.do(t, http.MethodPost, "/api/summaries", body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"columns":["Item","Note"]`)
}

func TestUploadRejections(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "report.pdf", "%PDF", "")
	rec := env.do(t, http.MethodPost, "/api/summaries", body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	body, ct = multipartBody(t, "big.csv", "Cost\n"+strings.Repeat("1\n", 600), "")
	rec = env.do(t, http.MethodPost, "/api/summaries", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	body, ct = multipartBody(t, "", "", "Cost")
	rec = env.do(t, http.MethodPost, "/api/summaries", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_FILE")
}

func TestSummarizeValuesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/summaries/values", []byte(`{"values":["50","abc","","25.5"]}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run domain.Run
	decode(t, rec, &run)
	assert.InDelta(t, 75.5, run.Summary.Total, 1e-9)
	assert.Equal(t, 2, run.Summary.Count)

	rec = env.do(t, http.MethodPost, "/api/summaries/values", []byte(`{"vals":[]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarizeValuesAcceptsNumbers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/summaries/values", []byte(`{"values":[100.00, 250.50, 900.00]}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run domain.Run
	decode(t, rec, &run)
	assert.InDelta(t, 1250.50, run.Summary.Total, 1e-9)
	assert.Equal(t, 3, run.Summary.Count)
}

func TestSummarizeValuesOverflowKeepsHistoryReadable(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/summaries/values", []byte(`{"values":["1e308","1e308"]}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run domain.Run
	decode(t, rec, &run)
	assert.Equal(t, domain.StatusError, run.Summary.Status)
	assert.Equal(t, domain.CodeOutOfRange, run.Summary.ErrorCode)

	rec = env.do(t, http.MethodGet, "/api/extractions", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Cost Sheet Dashboard")
}

func TestHealthProbesAreNotCached(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health/live", nil, "")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
