package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/nao1215/seoaudit/internal/model"
)

// TerminalWriter outputs audits as tabbed text for terminal display.
// The tab bar lists every category with the active one highlighted; only
// the active tab's entries are printed unless all tabs are requested.
type TerminalWriter struct {
	baseWriter

	tab     model.Category
	allTabs bool
	color   bool
}

// TerminalWriterOption configures a TerminalWriter.
type TerminalWriterOption func(*TerminalWriter)

// WithTab sets the active tab.
func WithTab(c model.Category) TerminalWriterOption {
	return func(w *TerminalWriter) {
		if c.Valid() {
			w.tab = c
		}
	}
}

// WithAllTabs prints the entries of every tab.
func WithAllTabs(all bool) TerminalWriterOption {
	return func(w *TerminalWriter) {
		w.allTabs = all
	}
}

// WithColor forces color on or off. By default color is used only when the
// output is a terminal.
func WithColor(enabled bool) TerminalWriterOption {
	return func(w *TerminalWriter) {
		w.color = enabled
	}
}

// NewTerminalWriter creates a TerminalWriter that outputs to the given writer.
func NewTerminalWriter(output io.Writer, opts ...TerminalWriterOption) *TerminalWriter {
	w := &TerminalWriter{
		baseWriter: newBaseWriter(output),
		tab:        model.CategoryTechnical,
		color:      isTerminal(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// isTerminal reports whether output is a terminal.
func isTerminal(output io.Writer) bool {
	f, ok := output.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write outputs the audit as tabbed text.
func (w *TerminalWriter) Write(audit *model.Audit) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, audit)
	w.writeTabBar(&sb)

	if w.allTabs {
		for _, c := range model.Categories() {
			w.writeTab(&sb, audit, c)
		}
	} else {
		w.writeTab(&sb, audit, w.tab)
	}

	w.writeRecord(&sb, audit)
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *TerminalWriter) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if w.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (w *TerminalWriter) writeHeader(sb *strings.Builder, audit *model.Audit) {
	bold := w.paint(color.Bold)

	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString(bold.Sprint("SEO AUDIT REPORT"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "URL:      %s\n", audit.Target.NormalizedURL)
	if !audit.StartedAt.IsZero() {
		fmt.Fprintf(sb, "Date:     %s\n", audit.StartedAt.Format(dateFormat))
	}
	if d := audit.Duration(); d > 0 {
		fmt.Fprintf(sb, "Duration: %s\n", d.Round(time.Millisecond))
	}
	fmt.Fprintf(sb, "Status:   %s\n\n", w.statusColor(audit).Sprint(statusText(audit)))
}

func (w *TerminalWriter) statusColor(audit *model.Audit) *color.Color {
	switch audit.State {
	case model.StateCompleted:
		return w.paint(color.FgGreen)
	case model.StateFailed:
		return w.paint(color.FgRed)
	default:
		return w.paint(color.FgYellow)
	}
}

func (w *TerminalWriter) writeTabBar(sb *strings.Builder) {
	active := w.paint(color.FgCyan, color.Bold)

	titles := make([]string, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		if c == w.tab {
			titles = append(titles, active.Sprint("["+c.Title()+"]"))
			continue
		}
		titles = append(titles, " "+c.Title()+" ")
	}
	sb.WriteString(strings.Join(titles, " "))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
}

func (w *TerminalWriter) writeTab(sb *strings.Builder, audit *model.Audit, c model.Category) {
	if w.allTabs {
		sb.WriteString(w.paint(color.Bold).Sprint(strings.ToUpper(c.Title())))
		sb.WriteString("\n")
	}

	entries := audit.EntriesFor(c)
	if len(entries) == 0 {
		sb.WriteString("  No results\n\n")
		return
	}

	width := 0
	for _, e := range entries {
		width = max(width, len(e.Label))
	}
	label := w.paint(color.FgCyan)
	for _, e := range entries {
		fmt.Fprintf(sb, "  %s%s  %s\n", label.Sprint(e.Label+":"), strings.Repeat(" ", width-len(e.Label)), e.Value)
	}
	sb.WriteString("\n")
}

// writeRecord lists what an export of the audit would contain.
func (w *TerminalWriter) writeRecord(sb *strings.Builder, audit *model.Audit) {
	if !audit.Exportable() || audit.Record == nil {
		return
	}
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	sb.WriteString("EXPORT RECORD\n")
	for _, f := range audit.Record.Fields() {
		fmt.Fprintf(sb, "  %s: %s\n", f.Key, f.Value)
	}
	sb.WriteString("\n")
}
