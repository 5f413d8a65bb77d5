package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/nao1215/seoaudit/internal/check"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/page"
)

// funcCheck is a check whose behavior is given by a function.
type funcCheck struct {
	name     string
	category model.Category
	run      func(ctx context.Context, in *check.Input) ([]model.ResultEntry, error)
}

func (c *funcCheck) Name() string             { return c.name }
func (c *funcCheck) Category() model.Category { return c.category }
func (c *funcCheck) Run(ctx context.Context, in *check.Input) ([]model.ResultEntry, error) {
	return c.run(ctx, in)
}

// staticCheck returns one entry with value.
func staticCheck(name string, category model.Category, label, value string) *funcCheck {
	return &funcCheck{
		name:     name,
		category: category,
		run: func(context.Context, *check.Input) ([]model.ResultEntry, error) {
			return []model.ResultEntry{model.NewEntry(category, label, value)}, nil
		},
	}
}

// failingCheck returns err.
func failingCheck(name string, category model.Category, err error) *funcCheck {
	return &funcCheck{
		name:     name,
		category: category,
		run: func(context.Context, *check.Input) ([]model.ResultEntry, error) {
			return nil, err
		},
	}
}

// blockingCheck waits for release or cancellation.
func blockingCheck(name string, category model.Category, release <-chan struct{}) *funcCheck {
	return &funcCheck{
		name:     name,
		category: category,
		run: func(ctx context.Context, _ *check.Input) ([]model.ResultEntry, error) {
			select {
			case <-release:
				return []model.ResultEntry{model.NewEntry(category, name, "done")}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
}

func newRegistry(checks ...check.Check) *check.Registry {
	r := check.NewRegistry()
	for _, c := range checks {
		r.MustRegister(c)
	}
	return r
}

// fakePages serves one fixed body.
type fakePages struct {
	body string
	mu   sync.Mutex
	doc  *page.Document
}

func (f *fakePages) Page(context.Context, string) (*page.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil {
		doc, err := page.Parse(f.body)
		if err != nil {
			return nil, err
		}
		f.doc = doc
	}
	return f.doc, nil
}

func (f *fakePages) Fingerprint(string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil {
		return ""
	}
	return f.doc.Fingerprint()
}

func fakePageFactory(body string) PageSetFactory {
	return func() PageSet { return &fakePages{body: body} }
}

// recordingDisplay records every call.
type recordingDisplay struct {
	mu            sync.Mutex
	resets        int
	entries       []model.ResultEntry
	exportVisible bool
	notices       []string
}

func (d *recordingDisplay) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resets++
	d.entries = nil
	d.notices = nil
}

func (d *recordingDisplay) Append(e model.ResultEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !e.Category.Valid() {
		return errors.New("unknown category")
	}
	d.entries = append(d.entries, e)
	return nil
}

func (d *recordingDisplay) SetExportVisible(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exportVisible = v
}

func (d *recordingDisplay) Notify(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, msg)
}

func (d *recordingDisplay) snapshot() ([]model.ResultEntry, bool, []string, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entries := append([]model.ResultEntry(nil), d.entries...)
	notices := append([]string(nil), d.notices...)
	return entries, d.exportVisible, notices, d.resets
}

func labels(entries []model.ResultEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}
