package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costsheet/internal/config"
	"costsheet/internal/console"
	"costsheet/internal/operations"
	"costsheet/internal/scraper"
	"costsheet/internal/shared/testutil"
	"costsheet/pkg/contracts/domain"
)

const testSheetURL = "https://docs.google.com/spreadsheets/d/abc123/edit#gid=0"

func init() {
	console.DisableColor()
}

type stubSource struct {
	kind    domain.SourceKind
	summary domain.CostSummary
	target  string
}

func (s *stubSource) Kind() domain.SourceKind { return s.kind }

func (s *stubSource) Run(_ context.Context, target string, reporter scraper.Reporter) domain.CostSummary {
	s.target = target
	reporter.ReportStep(domain.StepRecord{Name: scraper.StepNavigate, Status: domain.StepCompleted, Progress: 30})
	return s.summary
}

func successSummary() domain.CostSummary {
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

// isolateEnv keeps the developer's .env and COSTSHEET_* variables out of tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvPrefix+"_ENV_FILE", filepath.Join(t.TempDir(), ".env"))
	t.Setenv(config.EnvSheetURL, "")
	t.Setenv("GOOGLE_SHEET_URL", "")
}

func runCLI(t *testing.T, src operations.Source, args ...string) (string, string, error) {
	t.Helper()
	isolateEnv(t)

	var out, errOut bytes.Buffer
	cli := newCLI(&out, &errOut)
	if src != nil {
		cli.sources = func(context.Context, *config.Config, *slog.Logger) []operations.Source {
			return []operations.Source{src}
		}
	}
	cli.rootCmd.SetArgs(args)
	err := cli.Execute()
	return out.String(), errOut.String(), err
}

func writeCostCSV(t *testing.T) string {
	t.Helper()
	return testutil.WriteCSV(t, t.TempDir(), "costs.csv", [][]string{
		{"Item", "Cost"},
		{"Hosting", "100"},
		{"Domains", "250.50"},
		{"Laptop", "900"},
	})
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "costsheet v")
}

func TestSummarizeCommand(t *testing.T) {
	path := writeCostCSV(t)

	t.Run("table output", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "summarize", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Total expense")
		assert.Contains(t, out, "$1250.50")
		assert.Contains(t, out, "100.00, 250.50, 900.00")
	})

	t.Run("json output", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "summarize", "--json", path)
		require.NoError(t, err)

		var got struct {
			Source  string             `json:"source"`
			Target  string             `json:"target"`
			Summary domain.CostSummary `json:"summary"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "upload", got.Source)
		assert.Equal(t, "costs.csv", got.Target)
		assert.InDelta(t, 1250.5, got.Summary.Total, 1e-9)
		assert.Equal(t, 3, got.Summary.Count)
	})

	t.Run("no cost column lists headers", func(t *testing.T) {
		noCost := testutil.WriteCSV(t, t.TempDir(), "notes.csv", [][]string{
			{"Date", "Notes"},
			{"2024-01-01", "lunch"},
		})
		out, _, err := runCLI(t, nil, "summarize", noCost)
		require.NoError(t, err)
		assert.Contains(t, out, "--column")
		assert.Contains(t, out, "Notes")
	})

	t.Run("directory uses newest export", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "summarize", "--json", filepath.Dir(path))
		require.NoError(t, err)
		assert.Contains(t, out, `"target": "costs.csv"`)
	})

	t.Run("manual column", func(t *testing.T) {
		taxes := testutil.WriteCSV(t, t.TempDir(), "tax.csv", [][]string{
			{"Item", "Tax"},
			{"a", "5"},
			{"b", "7.5"},
		})
		out, _, err := runCLI(t, nil, "summarize", "--column", "Tax", taxes)
		require.NoError(t, err)
		assert.Contains(t, out, "$12.50")
	})

	t.Run("unsupported file", func(t *testing.T) {
		pdf := filepath.Join(t.TempDir(), "report.pdf")
		require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o600))
		_, _, err := runCLI(t, nil, "summarize", pdf)
		assert.Error(t, err)
	})

	t.Run("requires a file", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "summarize")
		assert.Error(t, err)
	})
}

func TestExportCommand(t *testing.T) {
	path := writeCostCSV(t)

	t.Run("csv", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "report.csv")
		out, _, err := runCLI(t, nil, "export", path, "--format", "csv", "--out", dest)
		require.NoError(t, err)
		assert.Contains(t, out, dest)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Total expense,1250.50")
	})

	t.Run("xlsx", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "report.xlsx")
		_, _, err := runCLI(t, nil, "export", path, "-f", "xlsx", "-o", dest)
		require.NoError(t, err)

		info, err := os.Stat(dest)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "export", path, "--format", "docx")
		assert.Error(t, err)
	})
}

func TestExtractCommand(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		src := &stubSource{kind: domain.SourceBrowser, summary: successSummary()}
		out, _, err := runCLI(t, src, "extract", "--url", testSheetURL, "--json")
		require.NoError(t, err)
		assert.Equal(t, testSheetURL, src.target)

		var got domain.CostSummary
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, domain.StatusSuccess, got.Status)
		assert.InDelta(t, 1250.5, got.Total, 1e-9)
	})

	t.Run("table output", func(t *testing.T) {
		src := &stubSource{kind: domain.SourceBrowser, summary: successSummary()}
		out, _, err := runCLI(t, src, "extract", "--url", testSheetURL)
		require.NoError(t, err)
		assert.Contains(t, out, "$1250.50")
	})

	t.Run("failed run exits non-zero", func(t *testing.T) {
		src := &stubSource{
			kind:    domain.SourceBrowser,
			summary: domain.ErrorSummary(domain.SourceBrowser, domain.CodeSignInRequired, "sign in required"),
		}
		_, _, err := runCLI(t, src, "extract", "--url", testSheetURL, "--json")
		assert.ErrorIs(t, err, errSummaryFailed)
	})

	t.Run("unavailable source", func(t *testing.T) {
		src := &stubSource{kind: domain.SourceBrowser, summary: successSummary()}
		_, _, err := runCLI(t, src, "extract", "--url", testSheetURL, "--source", "api")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not available")
	})

	t.Run("no sheet link", func(t *testing.T) {
		src := &stubSource{kind: domain.SourceBrowser, summary: successSummary()}
		_, _, err := runCLI(t, src, "extract")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no sheet link")
		assert.Empty(t, src.target)
	})
}

func TestPickSource(t *testing.T) {
	browser := &stubSource{kind: domain.SourceBrowser}
	api := &stubSource{kind: domain.SourceAPI}

	got, err := pickSource([]operations.Source{browser, api}, domain.SourceAPI)
	require.NoError(t, err)
	assert.Same(t, api, got)

	_, err = pickSource([]operations.Source{browser}, domain.SourceAPI)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: browser")
}
