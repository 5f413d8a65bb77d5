package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/seoaudit/internal/model"
)

// DefaultConcurrency is the number of audits a BatchProcessor runs at once
// unless WithConcurrency says otherwise.
const DefaultConcurrency = 4

// BatchResult is the outcome of one audit of a batch.
type BatchResult struct {
	// Input is the URL as given by the user.
	Input string

	// Audit is the finished audit. It is nil when the input was rejected or
	// no pipeline could be built.
	Audit *model.Audit

	// Display is the surface the audit was shown on.
	Display Display

	// Err is the error the run ended with, if any.
	Err error
}

// BatchProcessor audits many URLs with bounded concurrency. Every audit gets
// its own pipeline and its own display.
type BatchProcessor struct {
	pipelineFactory func(input string) (*Pipeline, error)
	displayFactory  func(input string) Display

	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
// Values below 1 are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithDisplayFactory sets the factory creating the display of each audit.
// Without it, audits are run against a display that discards everything.
func WithDisplayFactory(fn func(input string) Display) BatchOption {
	return func(b *BatchProcessor) {
		b.displayFactory = fn
	}
}

// NewBatchProcessor creates a new BatchProcessor. pipelineFactory is called
// once per input.
func NewBatchProcessor(pipelineFactory func(input string) (*Pipeline, error), opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		displayFactory:  func(string) Display { return discardDisplay{} },
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch audits every input and returns the results in input order.
// A failed audit does not stop the others; its error is in its result.
// The returned error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, inputs []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(inputs))
	err := bp.ProcessBatchWithCallback(ctx, inputs, func(res BatchResult, index int) {
		results[index] = res
	})
	return results, err
}

// ProcessBatchWithCallback audits every input and calls callback as each
// audit finishes. callback runs on the goroutine of the finished audit and
// must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	inputs []string,
	callback func(res BatchResult, index int),
) error {
	bp.logger.Info("starting batch audit",
		"total", len(inputs),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("auditing",
				"input", input,
				"index", i+1,
				"total", len(inputs),
			)

			callback(bp.auditOne(gctx, input), i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch audit complete",
		"total", len(inputs),
		"elapsed", time.Since(startTime),
	)
	return err
}

func (bp *BatchProcessor) auditOne(ctx context.Context, input string) BatchResult {
	display := bp.displayFactory(input)
	res := BatchResult{Input: input, Display: display}

	res.Audit, res.Err = SiteExecutor(bp.pipelineFactory).Run(ctx, input, display)
	if res.Err != nil {
		bp.logger.Warn("audit failed", "input", input, "error", res.Err)
	}
	return res
}

// discardDisplay ignores every update.
type discardDisplay struct{}

func (discardDisplay) Reset()                         {}
func (discardDisplay) Append(model.ResultEntry) error { return nil }
func (discardDisplay) SetExportVisible(bool)          {}
func (discardDisplay) Notify(string)                  {}
