package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestPDFExporter(t *testing.T) {
	t.Parallel()

	t.Run("writes a PDF document", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewPDFExporter().Export(&buf, createTestAudit()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
			t.Error("expected PDF header")
		}
	})

	t.Run("refuses audits that did not complete", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := NewPDFExporter().Export(&buf, createFailedAudit())
		if !errors.Is(err, ErrNotExportable) {
			t.Errorf("expected ErrNotExportable, got %v", err)
		}
		if buf.Len() != 0 {
			t.Error("expected nothing written")
		}
	})

	t.Run("short record fits on one page", func(t *testing.T) {
		t.Parallel()

		pdf, err := NewPDFExporter().render(createTestAudit())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pdf.PageCount() != 1 {
			t.Errorf("expected 1 page, got %d", pdf.PageCount())
		}
	})

	t.Run("long record continues on new pages", func(t *testing.T) {
		t.Parallel()

		audit := createTestAudit()
		// A4 holds lines at y=40..270 on the first page: 24 lines.
		for i := range 40 {
			audit.Record.Set(fmt.Sprintf("key%02d", i), "value")
		}

		pdf, err := NewPDFExporter().render(audit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pdf.PageCount() != 2 {
			t.Errorf("expected 2 pages, got %d", pdf.PageCount())
		}
	})

	t.Run("non-Latin values do not fail the export", func(t *testing.T) {
		t.Parallel()

		audit := createTestAudit()
		audit.Record.Set("title", "Café – naïve")

		var buf bytes.Buffer
		if err := NewPDFExporter().Export(&buf, audit); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ExportFile creates directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out", DefaultPDFFileName)
		if err := NewPDFExporter().ExportFile(path, createTestAudit()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected file: %v", err)
		}
		if info.Size() == 0 {
			t.Error("expected non-empty file")
		}
	})

	t.Run("ExportFile of a failed audit creates no file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultPDFFileName)
		if err := NewPDFExporter().ExportFile(path, createFailedAudit()); !errors.Is(err, ErrNotExportable) {
			t.Errorf("expected ErrNotExportable, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected no file")
		}
	})
}
