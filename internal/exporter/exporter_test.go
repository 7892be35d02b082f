package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"costsheet/internal/dataprocessing"
	"costsheet/pkg/contracts/domain"
)

func finishedRun() domain.Run {
	summary := dataprocessing.Summarize([]float64{100, 250.5, 900})
	summary.Column = "Cost"
	summary.Source = domain.SourceUpload
	done := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return domain.Run{
		ID:          "0123456789abcdef",
		Source:      domain.SourceUpload,
		Target:      "costs.csv",
		Status:      domain.RunCompleted,
		Summary:     &summary,
		CompletedAt: &done,
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"csv", "XLSX", " pdf "} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatMetadata(t *testing.T) {
	run := finishedRun()
	assert.Equal(t, "cost-summary-01234567.csv", FormatCSV.FileName(run))
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, finishedRun(), FormatCSV))
	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	r := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):]))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	summary := map[string]string{}
	var values [][]string
	inValues := false
	for _, rec := range records {
		if len(rec) == 2 && rec[0] == "#" {
			inValues = true
			continue
		}
		if inValues {
			values = append(values, rec)
		} else if len(rec) == 2 {
			summary[rec[0]] = rec[1]
		}
	}

	assert.Equal(t, "1250.50", summary["Total expense"])
	assert.Equal(t, "3", summary["Count"])
	assert.Equal(t, "416.83", summary["Average"])
	assert.Equal(t, "900.00", summary["Maximum"])
	assert.Equal(t, [][]string{{"1", "100"}, {"2", "250.5"}, {"3", "900"}}, values)
}

func TestExportCSVEmptySummary(t *testing.T) {
	run := finishedRun()
	empty := dataprocessing.Summarize(nil)
	run.Summary = &empty

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, run, FormatCSV))
	assert.Contains(t, buf.String(), "Average,n/a")
}

func TestExportXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, finishedRun(), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, valuesSheet}, f.GetSheetList())

	rows, err := f.GetRows(valuesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"3", "900"}, rows[3])

	total, err := f.GetCellValue(summarySheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "1250.50", total)
}

func TestExportPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, finishedRun(), FormatPDF))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExportRequiresSummary(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Export(&buf, domain.Run{ID: "x"}, FormatCSV), ErrNoSummary)
	assert.ErrorIs(t, Export(&buf, finishedRun(), Format("docx")), ErrUnknownFormat)
}
