package check

import (
	"context"
	"fmt"

	"github.com/nao1215/seoaudit/internal/model"
)

// PageSpeedCheck reports the PageSpeed performance score and LCP.
type PageSpeedCheck struct {
	runner PageSpeedRunner
}

// NewPageSpeedCheck creates a PageSpeedCheck.
func NewPageSpeedCheck(runner PageSpeedRunner) *PageSpeedCheck {
	return &PageSpeedCheck{runner: runner}
}

// Name returns the check name.
func (c *PageSpeedCheck) Name() string { return "pagespeed" }

// Category returns the check category.
func (c *PageSpeedCheck) Category() model.Category { return model.CategoryUX }

// Run reports the rounded "<score>/100" and records the unrounded score
// under "speed".
func (c *PageSpeedCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	res, err := c.runner.Run(ctx, in.Target.NormalizedURL)
	if err != nil {
		return nil, err
	}
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Speed Score", fmt.Sprintf("%d/100", res.Score)).Recorded(RecordKeySpeed, res.Percent),
		model.NewEntry(c.Category(), "Largest Contentful Paint", res.LargestContentfulPaint),
	}, nil
}

// MobileFriendlyCheck reports the Mobile-Friendly Test verdict.
type MobileFriendlyCheck struct {
	classifier MobileClassifier
}

// NewMobileFriendlyCheck creates a MobileFriendlyCheck.
func NewMobileFriendlyCheck(classifier MobileClassifier) *MobileFriendlyCheck {
	return &MobileFriendlyCheck{classifier: classifier}
}

// Name returns the check name.
func (c *MobileFriendlyCheck) Name() string { return "mobile-friendly" }

// Category returns the check category.
func (c *MobileFriendlyCheck) Category() model.Category { return model.CategoryUX }

// Run reports the verdict verbatim.
func (c *MobileFriendlyCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	verdict, err := c.classifier.Classify(ctx, in.Target.NormalizedURL)
	if err != nil {
		return nil, err
	}
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Mobile Friendly", verdict),
	}, nil
}
