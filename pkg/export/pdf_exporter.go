package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidthLandscape = 277.0
	lineHeight         = 5.0
)

// PDFExporter renders datasets into a landscape table, one page per overflow.
// The first column is treated as a row label and kept narrow.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with the dataset title and table body.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	widths := columnWidths(len(data.Headers))
	writeHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	writeHeader()

	_, pageHeight := pdf.GetPageSize()
	left, _, _, bottom := pdf.GetMargins()
	for _, row := range data.Rows {
		lines := 1
		cells := make([][][]byte, len(data.Headers))
		for i, header := range data.Headers {
			cells[i] = pdf.SplitLines([]byte(row[header]), widths[i]-2)
			if len(cells[i]) > lines {
				lines = len(cells[i])
			}
		}
		height := float64(lines) * lineHeight
		if pdf.GetY()+height > pageHeight-bottom {
			pdf.AddPage()
			writeHeader()
		}

		x, y := pdf.GetX(), pdf.GetY()
		for i := range data.Headers {
			pdf.Rect(x, y, widths[i], height, "D")
			text := make([]string, len(cells[i]))
			for j, line := range cells[i] {
				text[j] = string(line)
			}
			pdf.SetXY(x+1, y)
			pdf.MultiCell(widths[i]-2, lineHeight, strings.Join(text, "\n"), "", "L", false)
			x += widths[i]
		}
		pdf.SetXY(left, y+height)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(columns int) []float64 {
	widths := make([]float64, columns)
	if columns == 1 {
		widths[0] = pageWidthLandscape
		return widths
	}
	label := 25.0
	rest := (pageWidthLandscape - label) / float64(columns-1)
	widths[0] = label
	for i := 1; i < columns; i++ {
		widths[i] = rest
	}
	return widths
}
