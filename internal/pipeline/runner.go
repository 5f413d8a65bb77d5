package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/nao1215/seoaudit/internal/model"
)

// ErrSuperseded is returned for a run that was replaced by a newer one
// before it finished.
var ErrSuperseded = errors.New("audit superseded by a newer run")

// Executor runs one audit from raw user input.
type Executor interface {
	Run(ctx context.Context, raw string, display Display) (*model.Audit, error)
}

// Result is the outcome of a run started by Runner.Start.
type Result struct {
	Audit *model.Audit
	Err   error
}

// Runner owns one Display and allows a single live run against it.
// Starting a run cancels the previous one, and anything the previous run
// still tries to show is dropped, so a slow stale run can never overwrite
// the surfaces of a newer one.
type Runner struct {
	executor Executor
	display  Display

	mu     sync.Mutex
	token  uint64
	cancel context.CancelFunc
	last   *model.Audit
}

// NewRunner creates a Runner that shows its runs on display.
func NewRunner(executor Executor, display Display) *Runner {
	return &Runner{
		executor: executor,
		display:  display,
	}
}

// Start begins a run in the background and returns a channel that receives
// its Result exactly once. ctx bounds the run; it should outlive the call
// that triggered it.
func (r *Runner) Start(ctx context.Context, raw string) <-chan Result {
	runCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.token++
	token := r.token
	r.cancel = cancel
	r.mu.Unlock()

	done := make(chan Result, 1)
	go func() {
		defer cancel()

		guard := &guardedDisplay{runner: r, token: token}
		audit, err := r.executor.Run(runCtx, raw, guard)

		r.mu.Lock()
		current := token == r.token
		if current {
			r.last = audit
		}
		r.mu.Unlock()

		if !current {
			if audit != nil {
				audit.State = model.StateCancelled
			}
			err = ErrSuperseded
		}
		done <- Result{Audit: audit, Err: err}
	}()
	return done
}

// Run starts a run and waits for it.
func (r *Runner) Run(ctx context.Context, raw string) (*model.Audit, error) {
	res := <-r.Start(ctx, raw)
	return res.Audit, res.Err
}

// Cancel stops the current run, if any. Its surfaces keep what was shown.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Last returns the audit of the most recent run that finished without being
// superseded, or nil.
func (r *Runner) Last() *model.Audit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// forward calls fn with the display while token is still current.
func (r *Runner) forward(token uint64, fn func(Display)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.token {
		return false
	}
	fn(r.display)
	return true
}

// guardedDisplay drops updates from runs that are no longer current.
type guardedDisplay struct {
	runner *Runner
	token  uint64
}

func (g *guardedDisplay) Reset() {
	g.runner.forward(g.token, func(d Display) { d.Reset() })
}

func (g *guardedDisplay) Append(entry model.ResultEntry) error {
	var err error
	if !g.runner.forward(g.token, func(d Display) { err = d.Append(entry) }) {
		return ErrSuperseded
	}
	return err
}

func (g *guardedDisplay) SetExportVisible(visible bool) {
	g.runner.forward(g.token, func(d Display) { d.SetExportVisible(visible) })
}

func (g *guardedDisplay) Notify(message string) {
	g.runner.forward(g.token, func(d Display) { d.Notify(message) })
}
