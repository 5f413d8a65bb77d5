package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/nao1215/seoaudit/internal/model"
)

// DefaultPDFFileName is the file name offered for the PDF export.
const DefaultPDFFileName = "seo-audit-report.pdf"

// PDF layout in millimeters and points.
const (
	pdfTitle        = "SEO Audit Report"
	pdfTitleY       = 20.0
	pdfTitleSize    = 16.0
	pdfLineSize     = 12.0
	pdfMargin       = 20.0
	pdfFirstLineY   = 40.0
	pdfLineHeight   = 10.0
	pdfFontFamily   = "Helvetica"
	pdfCreatorLabel = "seoaudit"
)

// ErrNotExportable is returned when exporting an audit that did not complete.
var ErrNotExportable = errors.New("only completed audits can be exported")

// PDFExporter renders the export record of an audit as a single-column PDF:
// a centered title followed by one "key: value" line per record field.
type PDFExporter struct{}

// NewPDFExporter creates a PDFExporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export writes the PDF of audit to w.
func (e *PDFExporter) Export(w io.Writer, audit *model.Audit) error {
	pdf, err := e.render(audit)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// ExportFile writes the PDF of audit to path, creating parent directories.
// An empty path writes DefaultPDFFileName in the working directory.
func (e *PDFExporter) ExportFile(path string, audit *model.Audit) (err error) {
	if !audit.Exportable() {
		return ErrNotExportable
	}
	if path == "" {
		path = DefaultPDFFileName
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create PDF file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return e.Export(f, audit)
}

// render lays out the document. Lines that would cross the bottom margin
// continue on a new page.
func (e *PDFExporter) render(audit *model.Audit) (*fpdf.Fpdf, error) {
	if !audit.Exportable() {
		return nil, ErrNotExportable
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(pdfTitle, true)
	pdf.SetCreator(pdfCreatorLabel, true)
	if !audit.FinishedAt.IsZero() {
		pdf.SetCreationDate(audit.FinishedAt)
	}

	// Core fonts are cp1252; translate so page titles with accents survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pageWidth, pageHeight := pdf.GetPageSize()

	pdf.SetFont(pdfFontFamily, "", pdfTitleSize)
	title := tr(pdfTitle)
	pdf.Text((pageWidth-pdf.GetStringWidth(title))/2, pdfTitleY, title)

	pdf.SetFont(pdfFontFamily, "", pdfLineSize)
	y := pdfFirstLineY
	for _, f := range audit.Record.Fields() {
		if y > pageHeight-pdfMargin {
			pdf.AddPage()
			y = pdfMargin
		}
		pdf.Text(pdfMargin, y, tr(f.Key+": "+f.Value))
		y += pdfLineHeight
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return pdf, nil
}
