package check

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/seoaudit/internal/model"
)

type namedCheck struct {
	name     string
	category model.Category
}

func (c namedCheck) Name() string { return c.name }
func (c namedCheck) Category() model.Category { return c.category }
func (c namedCheck) Run(context.Context, *Input) ([]model.ResultEntry, error) {
	return nil, nil
}

// TestRegistry tests registration rules and ordering.
func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("keeps registration order", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		r.MustRegister(namedCheck{"b", model.CategoryOnPage})
		r.MustRegister(namedCheck{"a", model.CategoryTechnical})
		r.MustRegister(namedCheck{"c", model.CategoryOnPage})

		names := r.Names()
		if len(names) != 3 || names[0] != "b" || names[1] != "a" || names[2] != "c" {
			t.Errorf("unexpected order %v", names)
		}
		onpage := r.ByCategory(model.CategoryOnPage)
		if len(onpage) != 2 || onpage[0].Name() != "b" || onpage[1].Name() != "c" {
			t.Errorf("unexpected on-page checks %v", onpage)
		}
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		r.MustRegister(namedCheck{"a", model.CategoryUX})
		if err := r.Register(namedCheck{"a", model.CategoryTechnical}); !errors.Is(err, ErrDuplicateCheck) {
			t.Errorf("expected ErrDuplicateCheck, got %v", err)
		}
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		if err := r.Register(namedCheck{"a", model.Category("social")}); !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("expected ErrUnknownCategory, got %v", err)
		}
		if r.Len() != 0 {
			t.Error("rejected check must not be registered")
		}
	})
}

// TestDefaultRegistry tests the built-in check set.
func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := Default(Deps{})
	want := map[model.Category][]string{
		model.CategoryTechnical: {"indexing", "sitemap", "robots", "https", "broken-links"},
		model.CategoryOnPage:    {"meta-tags", "headings", "image-alt", "keyword-density", "word-count"},
		model.CategoryOffPage:   {"backlinks", "domain-authority"},
		model.CategoryUX:        {"pagespeed", "mobile-friendly"},
	}

	for cat, names := range want {
		got := r.ByCategory(cat)
		if len(got) != len(names) {
			t.Errorf("%s: got %d checks, expected %d", cat, len(got), len(names))
			continue
		}
		for i, name := range names {
			if got[i].Name() != name {
				t.Errorf("%s[%d]: got %q, expected %q", cat, i, got[i].Name(), name)
			}
		}
	}
}

func entryValue(t *testing.T, entries []model.ResultEntry, label string) model.ResultEntry {
	t.Helper()
	for _, e := range entries {
		if e.Label == label {
			return e
		}
	}
	t.Fatalf("no entry labeled %q in %+v", label, entries)
	return model.ResultEntry{}
}
