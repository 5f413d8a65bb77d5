package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/page"
)

// Record keys written by the built-in checks.
const (
	RecordKeyIndexed = "indexed"
	RecordKeySpeed   = "speed"
)

// Check computes results for one target.
type Check interface {
	// Name identifies the check in logs, metrics and errors.
	Name() string

	// Category is the report tab the check's results belong to.
	Category() model.Category

	// Run computes the check's results. A returned error fails the audit.
	Run(ctx context.Context, in *Input) ([]model.ResultEntry, error)
}

// PageSource returns parsed pages. Implementations memoize per run.
type PageSource interface {
	Page(ctx context.Context, target string) (*page.Document, error)
}

// Input is what every check receives.
type Input struct {
	// Target is the audited URL.
	Target model.AuditTarget

	// Pages loads the target page (and any other page) for this run.
	Pages PageSource
}

// Registry errors.
var (
	// ErrDuplicateCheck is returned when a check name is registered twice.
	ErrDuplicateCheck = errors.New("check already registered")

	// ErrUnknownCategory is returned for a check whose category has no tab.
	ErrUnknownCategory = errors.New("unknown check category")
)

// Registry is an ordered set of checks. It is built once at start-up and
// only read afterwards.
type Registry struct {
	checks []Check
	names  map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		checks: make([]Check, 0),
		names:  make(map[string]struct{}),
	}
}

// Register appends c.
func (r *Registry) Register(c Check) error {
	if !c.Category().Valid() {
		return fmt.Errorf("%w: %q (check %s)", ErrUnknownCategory, c.Category(), c.Name())
	}
	if _, dup := r.names[c.Name()]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateCheck, c.Name())
	}
	r.names[c.Name()] = struct{}{}
	r.checks = append(r.checks, c)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(c Check) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Checks returns all checks in registration order.
func (r *Registry) Checks() []Check {
	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}

// ByCategory returns the checks of one category in registration order.
func (r *Registry) ByCategory(c model.Category) []Check {
	out := make([]Check, 0)
	for _, chk := range r.checks {
		if chk.Category() == c {
			out = append(out, chk)
		}
	}
	return out
}

// Names returns the check names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.checks))
	for _, c := range r.checks {
		out = append(out, c.Name())
	}
	return out
}

// Len returns the number of registered checks.
func (r *Registry) Len() int {
	return len(r.checks)
}
