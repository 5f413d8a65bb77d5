package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/seoaudit/internal/check"
	"github.com/nao1215/seoaudit/internal/metrics"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/target"
)

// Display receives the progress of a run. report.Board is the production
// implementation; the HTTP API and the CLI read from it.
type Display interface {
	// Reset clears every surface.
	Reset()

	// Append adds an entry to the surface of its category.
	Append(entry model.ResultEntry) error

	// SetExportVisible shows or hides the export action.
	SetExportVisible(visible bool)

	// Notify shows a one-off message to the user.
	Notify(message string)
}

// PageSet is the per-run page source. It is created fresh for every run so
// no page is shared between runs.
type PageSet interface {
	check.PageSource

	// Fingerprint returns the hash of a page already loaded, or "".
	Fingerprint(target string) string
}

// PageSetFactory creates the PageSet of a new run.
type PageSetFactory func() PageSet

// CheckError is returned when a check fails and aborts the run.
type CheckError struct {
	// Check is the name of the failed check.
	Check string

	// Category is the category the check belongs to.
	Category model.Category

	// Err is the error returned by the check.
	Err error
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	return fmt.Sprintf("%s check failed: %v", e.Check, e.Err)
}

// Unwrap returns the error returned by the check.
func (e *CheckError) Unwrap() error {
	return e.Err
}

// Pipeline runs the checks of a registry against one target at a time.
// A Pipeline holds no per-run state and may execute several runs at once.
type Pipeline struct {
	registry *check.Registry
	newPages PageSetFactory

	logger *slog.Logger

	// parallelCategories runs every category at once instead of in order.
	parallelCategories bool

	newID func() string
	now   func() time.Time
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithParallelCategories runs all categories concurrently. Entries then
// arrive on the tabs in completion order across categories.
func WithParallelCategories(parallel bool) Option {
	return func(p *Pipeline) {
		p.parallelCategories = parallel
	}
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		p.newID = fn
	}
}

// WithClock replaces the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline that runs the checks of registry.
func New(registry *check.Registry, pages PageSetFactory, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: registry,
		newPages: pages,
		newID:    newRunID,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Registry returns the checks run by the pipeline.
func (p *Pipeline) Registry() *check.Registry {
	return p.registry
}

// Run normalizes raw and executes an audit against it. Invalid input is
// reported through display.Notify before any network activity and the
// surfaces are left untouched.
func (p *Pipeline) Run(ctx context.Context, raw string, display Display) (*model.Audit, error) {
	t, err := target.Normalize(raw)
	if err != nil {
		p.logger.Warn("rejected audit input", "input", raw, "error", err)
		display.Notify(err.Error())
		return nil, err
	}
	return p.Execute(ctx, t, display)
}

// Execute audits t. Every surface is reset and export is hidden before the
// first check starts. Each check's entries are shown as soon as the check
// finishes. The first failing check aborts the run: remaining checks are
// cancelled, one notification is shown and export stays hidden. The
// returned Audit is never nil.
func (p *Pipeline) Execute(ctx context.Context, t model.AuditTarget, display Display) (*model.Audit, error) {
	audit := model.NewAudit(p.newID(), t)
	audit.State = model.StateRunning
	audit.StartedAt = p.now()

	display.Reset()
	display.SetExportVisible(false)

	metrics.RunStarted()
	defer metrics.RunFinished()

	p.logger.Info("audit started",
		"id", audit.ID,
		"url", t.NormalizedURL,
		"checks", p.registry.Len(),
	)

	pages := p.newPages()
	r := &run{
		pipeline: p,
		audit:    audit,
		display:  display,
		input:    &check.Input{Target: t, Pages: pages},
	}

	err := r.execute(ctx)
	audit.FinishedAt = p.now()

	switch {
	case err == nil:
		audit.State = model.StateCompleted
		audit.PageFingerprint = pages.Fingerprint(t.NormalizedURL)
		display.SetExportVisible(true)
		p.logger.Info("audit completed",
			"id", audit.ID,
			"url", t.NormalizedURL,
			"entries", len(audit.Entries),
			"elapsed", audit.Duration(),
		)
	case ctx.Err() != nil:
		audit.State = model.StateCancelled
		audit.Error = ctx.Err().Error()
		err = ctx.Err()
		p.logger.Warn("audit cancelled", "id", audit.ID, "url", t.NormalizedURL, "reason", err)
	default:
		audit.State = model.StateFailed
		audit.Error = err.Error()
		display.Notify("Error: " + err.Error())
		p.logger.Error("audit failed", "id", audit.ID, "url", t.NormalizedURL, "error", err)
	}

	metrics.ObserveRun(string(audit.State))
	return audit, err
}

// run is the mutable state of one Execute call.
type run struct {
	pipeline *Pipeline
	audit    *model.Audit
	display  Display
	input    *check.Input

	// mu serializes appends so the audit and the display see entries in
	// the same order.
	mu sync.Mutex
}

func (r *run) execute(ctx context.Context) error {
	if !r.pipeline.parallelCategories {
		for _, category := range model.Categories() {
			if err := r.runCategory(ctx, category); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, category := range model.Categories() {
		g.Go(func() error {
			return r.runCategory(gctx, category)
		})
	}
	return g.Wait()
}

// runCategory runs every check of category concurrently and returns the
// first failure.
func (r *run) runCategory(ctx context.Context, category model.Category) error {
	checks := r.pipeline.registry.ByCategory(category)
	if len(checks) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	r.pipeline.logger.Debug("running category",
		"category", category,
		"checks", len(checks),
		"url", r.input.Target.NormalizedURL,
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range checks {
		g.Go(func() error {
			return r.runCheck(gctx, c)
		})
	}
	return g.Wait()
}

func (r *run) runCheck(ctx context.Context, c check.Check) error {
	logger := r.pipeline.logger.With("check", c.Name(), "url", r.input.Target.NormalizedURL)

	start := time.Now()
	entries, err := c.Run(ctx, r.input)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			metrics.ObserveCheck(c.Name(), string(c.Category()), "cancelled", elapsed)
			logger.Debug("check cancelled", "elapsed", elapsed)
			return err
		}
		metrics.ObserveCheck(c.Name(), string(c.Category()), "error", elapsed)
		logger.Error("check failed", "elapsed", elapsed, "error", err)
		return &CheckError{Check: c.Name(), Category: c.Category(), Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A sibling failed while this check was finishing; the run is over.
	if ctx.Err() != nil {
		metrics.ObserveCheck(c.Name(), string(c.Category()), "cancelled", elapsed)
		return ctx.Err()
	}

	for _, entry := range entries {
		if err := r.audit.Append(entry); err != nil {
			metrics.ObserveCheck(c.Name(), string(c.Category()), "error", elapsed)
			return &CheckError{Check: c.Name(), Category: c.Category(), Err: err}
		}
		if err := r.display.Append(entry); err != nil {
			metrics.ObserveCheck(c.Name(), string(c.Category()), "error", elapsed)
			return &CheckError{Check: c.Name(), Category: c.Category(), Err: err}
		}
	}

	metrics.ObserveCheck(c.Name(), string(c.Category()), "ok", elapsed)
	logger.Debug("check completed", "entries", len(entries), "elapsed", elapsed)
	return nil
}

// newRunID returns a time-ordered UUID so history sorts by ID as well.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
