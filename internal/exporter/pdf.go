package exporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"costsheet/pkg/contracts/domain"
)

var (
	headerColor       = []int{0, 51, 102}
	headerTextColor   = []int{255, 255, 255}
	sectionTitleColor = []int{0, 51, 102}
	bodyTextColor     = []int{50, 50, 50}
	lineColor         = []int{200, 200, 200}
)

func writePDF(w io.Writer, run domain.Run) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, "  Cost Summary", "", 1, "L", true, 0, "")
	pdf.Ln(6)

	section := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, title)
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}

	section("Overview")
	for _, row := range summaryRows(run) {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(150, 6, tr(row[1]), "", "L", false)
	}
	pdf.Ln(6)

	section(fmt.Sprintf("Values (%d)", len(run.Summary.Values)))
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(20, 7, "#", "B", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, "Value", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for i, v := range run.Summary.Values {
		pdf.CellFormat(20, 6, strconv.Itoa(i+1), "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, strconv.FormatFloat(v, 'f', 2, 64), "", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}
