// Package report holds the display surfaces of an audit and its output
// formats.
//
// Board is the live view a pipeline run appends to: one append-only surface
// per category, the export action and the last notification. Tabs tracks
// which category is shown.
//
// Finished audits are written by the writers in this package:
//   - TerminalWriter: tabbed text output, colored on terminals
//   - MarkdownWriter: GitHub Flavored Markdown
//   - HTMLWriter: the Markdown report rendered to HTML
//   - JSONWriter: the full audit as JSON
//
// PDFExporter produces the downloadable report of the exported record.
package report
