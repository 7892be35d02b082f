package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "costsheet/internal/errors"
	"costsheet/internal/scraper"
	"costsheet/internal/sheetsapi"
	"costsheet/internal/shared/testutil"
	"costsheet/pkg/contracts/domain"
)

type fakeFetcher struct {
	table domain.Table
	err   error
	got   sheetsapi.SheetRef
	panic bool
}

func (f *fakeFetcher) FetchTable(_ context.Context, ref sheetsapi.SheetRef) (domain.Table, error) {
	if f.panic {
		panic("boom")
	}
	f.got = ref
	return f.table, f.err
}

func collectSteps() (*[]domain.StepRecord, scraper.Reporter) {
	var steps []domain.StepRecord
	return &steps, scraper.ReporterFunc(func(s domain.StepRecord) {
		steps = append(steps, s)
	})
}

func TestAPISourceSummarizesCostColumn(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	fetcher := &fakeFetcher{table: domain.NewTable("Sheet1", [][]string{
		{"Item", "COST"},
		{"paper", "100"},
		{"ink", "250.5"},
		{"desk", "900"},
	})}
	src := NewAPISource(fetcher, logger)
	steps, reporter := collectSteps()

	summary := src.Run(context.Background(), "https://docs.google.com/spreadsheets/d/abc123/edit#gid=42", reporter)
	assert.Equal(t, domain.StatusSuccess, summary.Status)
	assert.InDelta(t, 1250.5, summary.Total, 1e-9)
	assert.Equal(t, "COST", summary.Column)
	assert.Equal(t, domain.SourceAPI, summary.Source)
	assert.Equal(t, sheetsapi.SheetRef{ID: "abc123", GID: "42"}, fetcher.got)

	last := (*steps)[len(*steps)-1]
	assert.Equal(t, scraper.StepSummarize, last.Name)
	assert.Equal(t, 100, last.Progress)
}

func TestAPISourceFailures(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		fetcher *fakeFetcher
		status  domain.SummaryStatus
		code    string
	}{
		{
			name:    "bad url",
			url:     "https://example.com/sheet",
			fetcher: &fakeFetcher{},
			status:  domain.StatusError,
			code:    domain.CodeSourceUnreachable,
		},
		{
			name:    "permission denied",
			url:     testSheetURL,
			fetcher: &fakeFetcher{err: apierrors.NewSignInRequiredError("sheet is private")},
			status:  domain.StatusError,
			code:    domain.CodeSignInRequired,
		},
		{
			name:    "network failure",
			url:     testSheetURL,
			fetcher: &fakeFetcher{err: errors.New("connection refused")},
			status:  domain.StatusError,
			code:    domain.CodeSourceUnreachable,
		},
		{
			name: "no cost column",
			url:  testSheetURL,
			fetcher: &fakeFetcher{table: domain.NewTable("Sheet1", [][]string{
				{"Item", "Note"},
				{"paper", "bulk"},
			})},
			status: domain.StatusEmpty,
			code:   domain.CodeColumnNotFound,
		},
		{
			name:    "panic",
			url:     testSheetURL,
			fetcher: &fakeFetcher{panic: true},
			status:  domain.StatusError,
			code:    domain.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			summary := NewAPISource(tt.fetcher, logger).Run(context.Background(), tt.url, nil)
			assert.Equal(t, tt.status, summary.Status)
			assert.Equal(t, tt.code, summary.ErrorCode)
			assert.Equal(t, domain.SourceAPI, summary.Source)
			assert.NotNil(t, summary.Values)
		})
	}
}

func TestAPISourceCancelled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	steps, reporter := collectSteps()
	summary := NewAPISource(&fakeFetcher{}, logger).Run(ctx, testSheetURL, reporter)
	require.Equal(t, domain.StatusError, summary.Status)
	assert.Equal(t, domain.StepFailed, (*steps)[1].Status)
	assert.Equal(t, StepParseURL, (*steps)[0].Name)
}
