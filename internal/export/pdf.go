package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/dgallion1/docusum/internal/doctree"
)

// PDFRenderer writes an A4 PDF with the same layout as the DOCX and a page
// number footer. Text is translated to cp1252 for the core fonts.
type PDFRenderer struct{}

func (PDFRenderer) Render(w io.Writer, res *doctree.Result) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(DocTitle), "", 1, "C", false, 0, "")
	if res.Filename != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr("File: "+res.Filename), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	for _, s := range res.Sections {
		pdf.SetFont("Arial", "B", 13)
		pdf.MultiCell(0, 7, tr(s.Title), "", "L", false)
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 11)
		for _, p := range sectionBody(s) {
			pdf.MultiCell(0, 6, tr(p), "", "J", false)
			pdf.Ln(3)
		}
		pdf.Ln(4)
	}

	return pdf.Output(w)
}
