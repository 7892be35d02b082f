package exporter

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"costsheet/pkg/contracts/domain"
)

// Format names an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var (
	// ErrUnknownFormat is returned for formats other than csv, xlsx and pdf.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrNoSummary is returned for runs that have not finished.
	ErrNoSummary = errors.New("run has no summary yet")
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// FileName suggests a download name for run.
func (f Format) FileName(run domain.Run) string {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("cost-summary-%s.%s", id, f)
}

// Export writes run in format f.
func Export(w io.Writer, run domain.Run, f Format) error {
	if run.Summary == nil {
		return ErrNoSummary
	}

	switch f {
	case FormatCSV:
		return writeCSV(w, run)
	case FormatXLSX:
		return writeXLSX(w, run)
	case FormatPDF:
		return writePDF(w, run)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// summaryRows is the label/value table shared by every format.
func summaryRows(run domain.Run) [][2]string {
	s := run.Summary
	rows := [][2]string{
		{"Run", run.ID},
		{"Source", string(run.Source)},
	}
	if run.Target != "" {
		rows = append(rows, [2]string{"Target", run.Target})
	}
	rows = append(rows,
		[2]string{"Status", string(s.Status)},
		[2]string{"Column", s.Column},
		[2]string{"Total expense", formatNumber(s.Total)},
		[2]string{"Count", strconv.Itoa(s.Count)},
		[2]string{"Average", formatOptional(s.Average)},
		[2]string{"Maximum", formatOptional(s.Maximum)},
		[2]string{"Message", s.Message},
	)
	if run.CompletedAt != nil {
		rows = append(rows, [2]string{"Completed", run.CompletedAt.UTC().Format("2006-01-02 15:04:05 MST")})
	}
	return rows
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatNumber(*v)
}
