package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"costsheet/pkg/contracts/domain"
)

const (
	summarySheet = "Summary"
	valuesSheet  = "Values"
)

func writeXLSX(w io.Writer, run domain.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(valuesSheet); err != nil {
		return fmt.Errorf("failed to create values sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, row := range summaryRows(run) {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &[]interface{}{row[0], row[1]}); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if err := f.SetColStyle(summarySheet, "A", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 60); err != nil {
		return err
	}

	if err := f.SetSheetRow(valuesSheet, "A1", &[]interface{}{"#", "Value"}); err != nil {
		return err
	}
	if err := f.SetRowStyle(valuesSheet, 1, 1, bold); err != nil {
		return err
	}
	for i, v := range run.Summary.Values {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(valuesSheet, cell, &[]interface{}{i + 1, v}); err != nil {
			return fmt.Errorf("failed to write value %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
