package report

import (
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/seoaudit/internal/model"
)

// MarkdownWriter outputs audits in GitHub Flavored Markdown, one section
// per tab.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the audit in Markdown format.
func (w *MarkdownWriter) Write(audit *model.Audit) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, audit)
	w.writeAlert(md, audit)
	for _, c := range model.Categories() {
		w.writeCategory(md, audit, c)
	}
	w.writeRecord(md, audit)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, audit *model.Audit) {
	md.H1("SEO Audit Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + audit.Target.NormalizedURL + "`"},
	}
	if !audit.StartedAt.IsZero() {
		rows = append(rows, []string{"Date", audit.StartedAt.Format(dateFormat)})
	}
	rows = append(rows,
		[]string{"Run ID", "`" + audit.ID + "`"},
		[]string{"Status", w.statusBadge(audit)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) statusBadge(audit *model.Audit) string {
	switch audit.State {
	case model.StateCompleted:
		return "✅ " + statusText(audit)
	case model.StateFailed:
		return "❌ " + statusText(audit)
	default:
		return "⚠️ " + statusText(audit)
	}
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, audit *model.Audit) {
	switch audit.State {
	case model.StateCompleted:
		md.Tip("All checks finished.")
	case model.StateFailed:
		md.Cautionf("The audit stopped early: %s. Results below are partial.", audit.Error)
	default:
		md.Warningf("The audit did not finish. Results below are partial.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategory(md *markdown.Markdown, audit *model.Audit, c model.Category) {
	md.H2(c.Title())
	md.PlainText("")

	entries := audit.EntriesFor(c)
	if len(entries) == 0 {
		md.PlainText("No results.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Label, escapeCell(e.Value)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeRecord(md *markdown.Markdown, audit *model.Audit) {
	if !audit.Exportable() || audit.Record == nil {
		return
	}
	md.H2("Export Record")
	md.PlainText("")

	fields := audit.Record.Fields()
	items := make([]string, len(fields))
	for i, f := range fields {
		items[i] = "**" + f.Key + "**: " + escapeCell(f.Value)
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [seoaudit](https://github.com/nao1215/seoaudit)*")
}

// escapeCell keeps page text from breaking table rows.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
