package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "costsheet/internal/errors"
	"costsheet/pkg/contracts/domain"
)

var (
	// ErrUnsupportedFormat is returned for extensions the parser cannot read.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader is returned when a file has no non-empty row.
	ErrNoHeader = errors.New("file has no header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SupportedExtensions lists the file extensions ParseReader understands.
var SupportedExtensions = []string{".csv", ".tsv", ".xlsx", ".xlsm"}

// IsSupported reports whether name has a parseable extension.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ParseFile reads a tabular file from disk.
func ParseFile(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ParseReader(filepath.Base(path), f)
}

// ParseReader reads a tabular document, choosing the format from name's
// extension. The first non-empty row becomes the header.
func ParseReader(name string, r io.Reader) (domain.Table, error) {
	var (
		rows  [][]string
		sheet string
		err   error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		rows, err = readDelimited(r, ',')
		sheet = name
	case ".tsv":
		rows, err = readDelimited(r, '\t')
		sheet = name
	case ".xlsx", ".xlsm":
		sheet, rows, err = readWorkbook(r)
	default:
		return domain.Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return domain.Table{}, apperrors.NewParsingError(fmt.Sprintf("could not read %s", name), err)
	}

	rows = dropLeadingBlankRows(rows)
	if len(rows) == 0 {
		return domain.Table{}, apperrors.NewParsingError(fmt.Sprintf("could not read %s", name), ErrNoHeader)
	}

	return domain.NewTable(sheet, rows), nil
}

func readDelimited(r io.Reader, comma rune) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	return cr.ReadAll()
}

// readWorkbook returns the rows of the first sheet that holds any data.
// Raw cell values are used so number formats do not leak into coercion,
// except for date and time cells, which keep their formatted text so a
// date column never passes for a numeric one.
func readWorkbook(r io.Reader) (string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return "", nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		if len(dropLeadingBlankRows(rows)) > 0 {
			if err := formatDateCells(f, name, rows); err != nil {
				return "", nil, fmt.Errorf("sheet %q: %w", name, err)
			}
			return name, rows, nil
		}
	}
	return "", nil, nil
}

// formatDateCells replaces the serial number of every date-formatted cell
// with the text the spreadsheet displays.
func formatDateCells(f *excelize.File, sheet string, rows [][]string) error {
	dateStyles := make(map[int]bool)
	for r, row := range rows {
		for c, raw := range row {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return err
			}
			isDate, ok := dateStyles[styleID]
			if !ok {
				style, err := f.GetStyle(styleID)
				if err != nil {
					return err
				}
				isDate = isDateStyle(style)
				dateStyles[styleID] = isDate
			}
			if !isDate {
				continue
			}
			formatted, err := f.GetCellValue(sheet, cell)
			if err != nil {
				return err
			}
			row[c] = formatted
		}
	}
	return nil
}

// isDateStyle reports whether a cell style renders its number as a date
// or time.
func isDateStyle(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	switch id := style.NumFmt; {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode looks for date or time tokens outside quoted literals,
// bracketed sections and escaped characters.
func isDateFormatCode(code string) bool {
	var (
		quoted  bool
		bracket bool
		escaped bool
	)
	for _, ch := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case ch == '"':
			quoted = !quoted
		case quoted:
		case ch == '\\':
			escaped = true
		case ch == '[':
			bracket = true
		case ch == ']':
			bracket = false
		case bracket:
		case ch == 'y', ch == 'd', ch == 'h', ch == 's':
			return true
		}
	}
	return false
}

func dropLeadingBlankRows(rows [][]string) [][]string {
	for i, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return rows[i:]
			}
		}
	}
	return nil
}
