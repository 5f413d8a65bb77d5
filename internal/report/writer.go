package report

import (
	"io"

	"github.com/nao1215/seoaudit/internal/model"
)

// Writer outputs a finished audit.
type Writer interface {
	// Write outputs the audit to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(audit *model.Audit) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// Our Writer writes audits, not bytes, so io.MultiWriter does not fit.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the audit to all configured Writers.
// Returns the total bytes written and stops on the first error.
func (m *MultiWriter) Write(audit *model.Audit) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(audit)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes the final state of an audit.
func statusText(audit *model.Audit) string {
	switch audit.State {
	case model.StateCompleted:
		return "Complete"
	case model.StateFailed:
		if audit.Error != "" {
			return "Failed - " + audit.Error
		}
		return "Failed"
	case model.StateCancelled:
		return "Cancelled (partial results)"
	case model.StateRunning:
		return "Running"
	default:
		return "Not started"
	}
}

// dateFormat is used for audit timestamps in every text format.
const dateFormat = "2006-01-02 15:04:05 MST"
