package check

import (
	"context"

	"github.com/nao1215/seoaudit/internal/model"
)

// DomainAuthorityUnavailable is reported while no authority source is wired.
const DomainAuthorityUnavailable = "Unavailable"

// BacklinksCheck reports the approximate number of backlinks.
type BacklinksCheck struct {
	search SearchCounter
}

// NewBacklinksCheck creates a BacklinksCheck.
func NewBacklinksCheck(search SearchCounter) *BacklinksCheck {
	return &BacklinksCheck{search: search}
}

// Name returns the check name.
func (c *BacklinksCheck) Name() string { return "backlinks" }

// Category returns the check category.
func (c *BacklinksCheck) Category() model.Category { return model.CategoryOffPage }

// Run queries "link:<input>" with the input as the user typed it.
func (c *BacklinksCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	count, err := c.search.ResultCount(ctx, "link:"+in.Target.RawInput)
	if err != nil {
		return nil, err
	}
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Backlinks (approx)", "~"+count),
	}, nil
}

// DomainAuthorityCheck reports that domain authority is unavailable.
type DomainAuthorityCheck struct{}

// NewDomainAuthorityCheck creates a DomainAuthorityCheck.
func NewDomainAuthorityCheck() *DomainAuthorityCheck { return &DomainAuthorityCheck{} }

// Name returns the check name.
func (c *DomainAuthorityCheck) Name() string { return "domain-authority" }

// Category returns the check category.
func (c *DomainAuthorityCheck) Category() model.Category { return model.CategoryOffPage }

// Run always reports DomainAuthorityUnavailable.
func (c *DomainAuthorityCheck) Run(_ context.Context, _ *Input) ([]model.ResultEntry, error) {
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Domain Authority", DomainAuthorityUnavailable),
	}, nil
}
