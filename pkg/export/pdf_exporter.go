package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Field is a label/value pair printed in a document header or summary.
type Field struct {
	Label string
	Value string
}

// Marksheet describes a single student's statement of marks.
type Marksheet struct {
	SchoolName string
	Title      string
	Details    []Field
	Headers    []string
	Rows       [][]string
	Summary    []Field
	Footer     string
}

// PDFExporter renders datasets and marksheets with gofpdf.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render produces a table document. Wide tables switch to landscape.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, width := "P", 190.0
	if len(data.Headers) > 8 {
		orientation, width = "L", 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	colWidth := width / float64(len(data.Headers))
	pdf.SetFont("Arial", "B", 8)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return output(pdf)
}

// RenderMarksheet lays out student details, the marks table and totals.
func (e *PDFExporter) RenderMarksheet(m Marksheet) ([]byte, error) {
	if len(m.Headers) == 0 {
		return nil, fmt.Errorf("marksheet requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(m.SchoolName), "", 1, "C", false, 0, "")
	if m.Title != "" {
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(0, 8, tr(m.Title), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	writeFields(pdf, tr, m.Details)
	pdf.Ln(4)

	first := 180.0 * 0.4
	rest := 180.0 - first
	if len(m.Headers) > 1 {
		rest = rest / float64(len(m.Headers)-1)
	}
	colWidth := func(i int) float64 {
		if i == 0 {
			return first
		}
		return rest
	}

	pdf.SetFont("Arial", "B", 9)
	for i, header := range m.Headers {
		pdf.CellFormat(colWidth(i), 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, row := range m.Rows {
		for i := range m.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			align := "C"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(colWidth(i), 7, tr(value), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	writeFields(pdf, tr, m.Summary)

	if m.Footer != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 5, tr(m.Footer), "", "L", false)
	}

	return output(pdf)
}

func writeFields(pdf *gofpdf.Fpdf, tr func(string) string, fields []Field) {
	for _, f := range fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 7, tr(f.Label), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, tr(f.Value), "", 1, "", false, 0, "")
	}
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
