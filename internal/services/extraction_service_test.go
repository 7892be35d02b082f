package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"costsheet/internal/config"
	apierrors "costsheet/internal/errors"
	"costsheet/internal/exporter"
	"costsheet/internal/operations"
	"costsheet/internal/shared/testutil"
	v1 "costsheet/pkg/contracts/api/v1"
	"costsheet/pkg/contracts/domain"
)

const testSheetURL = "https://docs.google.com/spreadsheets/d/abc123/edit#gid=0"

type mockRunManager struct {
	mock.Mock
}

func (m *mockRunManager) Start(ctx context.Context, kind domain.SourceKind, target string) (domain.Run, error) {
	args := m.Called(ctx, kind, target)
	return args.Get(0).(domain.Run), args.Error(1)
}

func (m *mockRunManager) Get(id string) (domain.Run, error) {
	args := m.Called(id)
	return args.Get(0).(domain.Run), args.Error(1)
}

func (m *mockRunManager) List(limit int) []domain.Run {
	args := m.Called(limit)
	return args.Get(0).([]domain.Run)
}

func (m *mockRunManager) HasSource(kind domain.SourceKind) bool {
	args := m.Called(kind)
	return args.Bool(0)
}

func newExtractionService(t *testing.T, runs RunManager, sheetURL string) *ExtractionService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.Default()
	cfg.Sheet.URL = sheetURL
	return NewExtractionService(runs, NewConfigService(cfg, logger), logger)
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	return apiErr.StatusCode
}

func TestExtractionStartUsesConfiguredURL(t *testing.T) {
	runs := new(mockRunManager)
	runs.On("HasSource", domain.SourceBrowser).Return(true)
	runs.On("Start", mock.Anything, domain.SourceBrowser, testSheetURL).
		Return(domain.Run{ID: "r1", Source: domain.SourceBrowser, Status: domain.RunPending}, nil)

	svc := newExtractionService(t, runs, testSheetURL)
	run, err := svc.Start(context.Background(), v1.ExtractionStartRequest{})
	require.NoError(t, err)
	assert.Equal(t, "r1", run.ID)
	runs.AssertExpectations(t)
}

func TestExtractionStartPrefersRequestURL(t *testing.T) {
	other := "https://docs.google.com/spreadsheets/d/other/edit"
	runs := new(mockRunManager)
	runs.On("HasSource", domain.SourceAPI).Return(true)
	runs.On("Start", mock.Anything, domain.SourceAPI, other).
		Return(domain.Run{ID: "r2", Source: domain.SourceAPI}, nil)

	svc := newExtractionService(t, runs, testSheetURL)
	run, err := svc.Start(context.Background(), v1.ExtractionStartRequest{Source: "api", URL: other})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceAPI, run.Source)
	runs.AssertExpectations(t)
}

func TestExtractionStartErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      v1.ExtractionStartRequest
		sheetURL string
		setup    func(m *mockRunManager)
		status   int
	}{
		{
			name: "no url configured",
			setup: func(m *mockRunManager) {
				m.On("HasSource", domain.SourceBrowser).Return(true)
			},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:     "api source without credentials",
			req:      v1.ExtractionStartRequest{Source: "api"},
			sheetURL: testSheetURL,
			setup: func(m *mockRunManager) {
				m.On("HasSource", domain.SourceAPI).Return(false)
			},
			status: http.StatusServiceUnavailable,
		},
		{
			name:     "browser run already active",
			sheetURL: testSheetURL,
			setup: func(m *mockRunManager) {
				m.On("HasSource", domain.SourceBrowser).Return(true)
				m.On("Start", mock.Anything, domain.SourceBrowser, testSheetURL).
					Return(domain.Run{}, operations.ErrRunInProgress)
			},
			status: http.StatusConflict,
		},
		{
			name:     "shutting down",
			sheetURL: testSheetURL,
			setup: func(m *mockRunManager) {
				m.On("HasSource", domain.SourceBrowser).Return(true)
				m.On("Start", mock.Anything, domain.SourceBrowser, testSheetURL).
					Return(domain.Run{}, operations.ErrShuttingDown)
			},
			status: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := new(mockRunManager)
			tt.setup(runs)
			svc := newExtractionService(t, runs, tt.sheetURL)

			_, err := svc.Start(context.Background(), tt.req)
			assert.Equal(t, tt.status, apiStatus(t, err))
			runs.AssertExpectations(t)
		})
	}
}

func TestExtractionGetMapsNotFound(t *testing.T) {
	runs := new(mockRunManager)
	runs.On("Get", "missing").Return(domain.Run{}, operations.ErrRunNotFound)

	svc := newExtractionService(t, runs, "")
	_, err := svc.Get("missing")
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
}

func TestExtractionList(t *testing.T) {
	runs := new(mockRunManager)
	runs.On("List", 5).Return([]domain.Run{{ID: "a"}, {ID: "b"}})

	svc := newExtractionService(t, runs, "")
	assert.Len(t, svc.List(5), 2)
}

func TestPrepareExport(t *testing.T) {
	summary := domain.CostSummary{Status: domain.StatusSuccess, Total: 10, Count: 1, Values: []float64{10}}
	runs := new(mockRunManager)
	runs.On("Get", "done").Return(domain.Run{ID: "done", Status: domain.RunCompleted, Summary: &summary}, nil)
	runs.On("Get", "pending").Return(domain.Run{ID: "pending", Status: domain.RunRunning}, nil)

	svc := newExtractionService(t, runs, "")

	run, format, err := svc.PrepareExport("done", "XLSX")
	require.NoError(t, err)
	assert.Equal(t, "done", run.ID)
	assert.Equal(t, exporter.FormatXLSX, format)

	_, _, err = svc.PrepareExport("pending", "csv")
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))

	_, _, err = svc.PrepareExport("done", "docx")
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
}
