package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/seoaudit/internal/model"
)

// JSONWriter outputs audits in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is embedded in the document when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in the document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the document written by JSONWriter.
type JSONReport struct {
	// Version is the seoaudit version that generated this report.
	Version string `json:"version,omitempty"`

	// Audit is the full audit, including every entry.
	Audit *model.Audit `json:"audit"`

	// Tabs groups the entries by category for consumers that render tabs.
	Tabs map[model.Category][]model.ResultEntry `json:"tabs"`
}

// NewJSONReport wraps audit for output.
func NewJSONReport(audit *model.Audit, version string) *JSONReport {
	tabs := make(map[model.Category][]model.ResultEntry, len(model.Categories()))
	for _, c := range model.Categories() {
		tabs[c] = audit.EntriesFor(c)
	}
	return &JSONReport{
		Version: version,
		Audit:   audit,
		Tabs:    tabs,
	}
}

// Write outputs the audit in JSON format.
func (w *JSONWriter) Write(audit *model.Audit) (int, error) {
	return w.writeJSON(NewJSONReport(audit, w.version))
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
