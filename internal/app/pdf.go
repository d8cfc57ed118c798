package app

import (
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/mccmnc/internal/extract"
)

// writeTablePDF renders the extracted table as a simple printable document:
// one heading per area, one line per operator entry. This is intentionally
// plain and does not attempt full table layout.
func writeTablePDF(res *extract.Result, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.AddPage()

	for _, name := range res.AreaNames {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, name, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, e := range res.Areas[strings.ToLower(name)] {
			pdf.CellFormat(30, 5, e.MCC+" "+e.MNC, "", 0, "L", false, 0, "")
			pdf.MultiCell(0, 5, e.Name, "", "L", false)
		}
		pdf.Ln(3)
	}

	return pdf.OutputFileAndClose(outPath)
}
