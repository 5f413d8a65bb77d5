package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/nao1215/seoaudit/internal/model"
)

// HTMLWriter outputs audits as a standalone HTML page. The body is the
// Markdown report rendered with GitHub Flavored Markdown extensions.
type HTMLWriter struct {
	baseWriter
	markdown goldmark.Markdown
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

const htmlPageStyle = `body{font-family:system-ui,sans-serif;max-width:48rem;margin:2rem auto;padding:0 1rem;color:#222}
table{border-collapse:collapse;margin:1rem 0}th,td{border:1px solid #ccc;padding:.3rem .6rem;text-align:left}
th{background:#f4f4f4}code{background:#f4f4f4;padding:0 .2rem}`

// Write outputs the audit as HTML.
func (w *HTMLWriter) Write(audit *model.Audit) (int, error) {
	var src bytes.Buffer
	if _, err := NewMarkdownWriter(&src).Write(audit); err != nil {
		return 0, fmt.Errorf("failed to build markdown report: %w", err)
	}

	var body bytes.Buffer
	if err := w.markdown.Convert(src.Bytes(), &body); err != nil {
		return 0, fmt.Errorf("failed to render markdown report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>SEO Audit Report - %s</title>\n", html.EscapeString(audit.Target.NormalizedURL))
	fmt.Fprintf(&page, "<style>%s</style>\n</head>\n<body>\n", htmlPageStyle)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return w.output.Write(page.Bytes())
}
