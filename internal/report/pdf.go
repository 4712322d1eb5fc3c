package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/chart"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/dataset"
)

const (
	Title       = "Tmax - Tstop Analysis Report"
	dateLayout  = "02-01-2006 15:04"
	cellWidth   = 30.0
	cellHeight  = 10.0
	chartWidth  = 200.0
	chartHeight = 120.0
	leftMargin  = 5.0
)

// WritePDF lays out the report: generation date, title, the summary chart,
// the summary table rounded to 3 decimals and the T_max and ln I - 1/kT
// charts of every run. Charts are looked up in chartDir; missing ones are
// left out.
func WritePDF(path string, rows []Row, chartDir string, generated time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Times", "", 11)
	pdf.Cell(150, 10, "")
	pdf.Cell(20, 10, generated.Format(dateLayout))
	pdf.Ln(30)

	pdf.SetFont("Times", "B", 24)
	pdf.CellFormat(0, 0, Title, "", 0, "C", false, 0, "")
	pdf.Ln(20)

	image(pdf, filepath.Join(chartDir, chart.SummaryName))

	pdf.Ln(5)
	pdf.SetFont("Times", "", 14)
	pdf.CellFormat(0, 10, "Summary table", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Times", "", 11)
	pdf.Cell(10, cellHeight, "")
	for _, name := range Columns[1:] {
		pdf.CellFormat(cellWidth, cellHeight, tr(name), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	for _, r := range rows {
		pdf.Cell(10, cellHeight, "")
		for _, v := range r.values() {
			pdf.CellFormat(cellWidth, cellHeight, Round(v, 3), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Times", "B", 18)
	pdf.Ln(10)
	for _, r := range rows {
		pdf.CellFormat(0, 0, tr(r.Label), "", 1, "C", false, 0, "")
		pdf.Ln(5)
		name := dataset.SafeName(r.Label)
		image(pdf, filepath.Join(chartDir, name+"_TSTOP.png"))
		pdf.Ln(5)
		image(pdf, filepath.Join(chartDir, name+"_IRM_lnkT.png"))
		pdf.Ln(10)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func image(pdf *fpdf.Fpdf, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	pdf.ImageOptions(path, leftMargin, -1, chartWidth, chartHeight, true,
		fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
}

// Round formats v with at most places decimals, half to even.
// Values that are not finite print as "nan" or "inf".
func Round(v float64, places int32) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return decimal.NewFromFloat(v).RoundBank(places).String()
}
