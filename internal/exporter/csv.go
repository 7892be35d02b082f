package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"costsheet/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// writeCSV emits the summary block, a blank line, then one value per row.
// The BOM lets Excel detect UTF-8.
func writeCSV(w io.Writer, run domain.Run) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	for _, row := range summaryRows(run) {
		if err := cw.Write(row[:]); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := cw.Write([]string{}); err != nil {
		return err
	}
	if err := cw.Write([]string{"#", "Value"}); err != nil {
		return err
	}
	for i, v := range run.Summary.Values {
		if err := cw.Write([]string{strconv.Itoa(i + 1), strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return fmt.Errorf("failed to write value %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
