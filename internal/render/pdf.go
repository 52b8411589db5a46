package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
)

// PDF renders the same classified report as a PDF, the secondary
// export format. Styling mirrors the Word output: bold metadata lines,
// section headings, bulleted items, bold label runs.
func PDF(report string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(documentTitle, false)
	pdf.SetAuthor("Learning Observer", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, documentTitle)
	pdf.Ln(14)

	for _, line := range Lines(report) {
		switch line.Kind {
		case KindMetadata:
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, 6, line.Text, "", "L", false)
		case KindHeading:
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "B", 14)
			pdf.MultiCell(0, 8, line.Text, "", "L", false)
		case KindLabelValue:
			pdf.SetFont("Helvetica", "B", 12)
			label := line.Label + ": "
			pdf.Cell(pdf.GetStringWidth(label)+1, 6, label)
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 6, line.Value, "", "L", false)
		case KindBullet:
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 6, fmt.Sprintf("- %s", line.Text), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 6, line.Text, "", "L", false)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	return buf.Bytes(), nil
}
