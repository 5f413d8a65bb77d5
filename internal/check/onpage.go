package check

import (
	"context"
	"strconv"

	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/page"
	"github.com/nao1215/seoaudit/internal/provider"
)

// Display lengths for page metadata.
const (
	TitleDisplayLength       = 60
	DescriptionDisplayLength = 160
)

// loadPage returns the target page from the run's page cache.
func loadPage(ctx context.Context, in *Input) (*page.Document, error) {
	return in.Pages.Page(ctx, in.Target.NormalizedURL)
}

// MetaTagsCheck reports the title and meta description.
type MetaTagsCheck struct{}

// NewMetaTagsCheck creates a MetaTagsCheck.
func NewMetaTagsCheck() *MetaTagsCheck { return &MetaTagsCheck{} }

// Name returns the check name.
func (c *MetaTagsCheck) Name() string { return "meta-tags" }

// Category returns the check category.
func (c *MetaTagsCheck) Category() model.Category { return model.CategoryOnPage }

// Run reports the truncated title and description, "N/A" when absent.
func (c *MetaTagsCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	doc, err := loadPage(ctx, in)
	if err != nil {
		return nil, err
	}
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Title", displayOrNA(doc.Title(), TitleDisplayLength)),
		model.NewEntry(c.Category(), "Meta Desc", displayOrNA(doc.MetaDescription(), DescriptionDisplayLength)),
	}, nil
}

func displayOrNA(s string, max int) string {
	if s == "" {
		return provider.NotAvailable
	}
	return page.Truncate(s, max)
}

// HeadingsCheck counts H1 and H2 elements.
type HeadingsCheck struct{}

// NewHeadingsCheck creates a HeadingsCheck.
func NewHeadingsCheck() *HeadingsCheck { return &HeadingsCheck{} }

// Name returns the check name.
func (c *HeadingsCheck) Name() string { return "headings" }

// Category returns the check category.
func (c *HeadingsCheck) Category() model.Category { return model.CategoryOnPage }

// Run reports the heading counts.
func (c *HeadingsCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	doc, err := loadPage(ctx, in)
	if err != nil {
		return nil, err
	}
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "H1 Tags", doc.Count("h1")),
		model.NewEntry(c.Category(), "H2 Tags", doc.Count("h2")),
	}, nil
}

// ImageAltCheck counts images without alt text.
type ImageAltCheck struct{}

// NewImageAltCheck creates an ImageAltCheck.
func NewImageAltCheck() *ImageAltCheck { return &ImageAltCheck{} }

// Name returns the check name.
func (c *ImageAltCheck) Name() string { return "image-alt" }

// Category returns the check category.
func (c *ImageAltCheck) Category() model.Category { return model.CategoryOnPage }

// Run reports "<n> images".
func (c *ImageAltCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	doc, err := loadPage(ctx, in)
	if err != nil {
		return nil, err
	}
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Missing Alt Text", formatImages(doc.ImagesMissingAlt())),
	}, nil
}

func formatImages(n int) string {
	return strconv.Itoa(n) + " images"
}

// KeywordDensityCheck measures how often a keyword occurs in the visible text.
type KeywordDensityCheck struct {
	keyword string
}

// NewKeywordDensityCheck creates a KeywordDensityCheck for keyword.
func NewKeywordDensityCheck(keyword string) *KeywordDensityCheck {
	if keyword == "" {
		keyword = DefaultKeyword
	}
	return &KeywordDensityCheck{keyword: keyword}
}

// Name returns the check name.
func (c *KeywordDensityCheck) Name() string { return "keyword-density" }

// Category returns the check category.
func (c *KeywordDensityCheck) Category() model.Category { return model.CategoryOnPage }

// Run reports the density as a percentage with two decimals.
func (c *KeywordDensityCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	doc, err := loadPage(ctx, in)
	if err != nil {
		return nil, err
	}
	label := `Keyword "` + c.keyword + `" Density`
	return []model.ResultEntry{
		model.NewEntry(c.Category(), label, page.KeywordDensity(doc.Text(), c.keyword)+"%"),
	}, nil
}

// WordCountCheck counts the words of the visible text.
type WordCountCheck struct{}

// NewWordCountCheck creates a WordCountCheck.
func NewWordCountCheck() *WordCountCheck { return &WordCountCheck{} }

// Name returns the check name.
func (c *WordCountCheck) Name() string { return "word-count" }

// Category returns the check category.
func (c *WordCountCheck) Category() model.Category { return model.CategoryOnPage }

// Run reports the word count.
func (c *WordCountCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	doc, err := loadPage(ctx, in)
	if err != nil {
		return nil, err
	}
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Word Count", page.WordCount(doc.Text())),
	}, nil
}
