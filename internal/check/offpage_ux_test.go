package check

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/provider"
)

// TestBacklinksCheck tests that the raw input is queried.
func TestBacklinksCheck(t *testing.T) {
	t.Parallel()

	search := &fakeSearch{count: "N/A"}
	entries, err := NewBacklinksCheck(search).Run(context.Background(), testInput(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if search.queries[0] != "link:example.com" {
		t.Errorf("unexpected query %q", search.queries[0])
	}
	e := entryValue(t, entries, "Backlinks (approx)")
	if e.Value != "~N/A" || e.RecordKey != "" {
		t.Errorf("unexpected entry %+v", e)
	}
}

// TestDomainAuthorityCheck tests the unavailable placeholder.
func TestDomainAuthorityCheck(t *testing.T) {
	t.Parallel()

	entries, err := NewDomainAuthorityCheck().Run(context.Background(), testInput(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := entryValue(t, entries, "Domain Authority").Value; got != DomainAuthorityUnavailable {
		t.Errorf("got %q", got)
	}
}

// TestPageSpeedCheck tests score display and recording.
func TestPageSpeedCheck(t *testing.T) {
	t.Parallel()

	t.Run("records speed", func(t *testing.T) {
		t.Parallel()
		runner := &fakePageSpeed{result: &provider.PageSpeedResult{Score: 87, Percent: 87, LargestContentfulPaint: "2.1 s"}}
		entries, err := NewPageSpeedCheck(runner).Run(context.Background(), testInput(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		score := entryValue(t, entries, "Speed Score")
		if score.Value != "87/100" || score.RecordKey != RecordKeySpeed || score.RecordValue != "87" {
			t.Errorf("unexpected entry %+v", score)
		}
		if got := entryValue(t, entries, "Largest Contentful Paint").Value; got != "2.1 s" {
			t.Errorf("lcp: got %q", got)
		}
	})

	t.Run("records the unrounded score and shows the rounded one", func(t *testing.T) {
		t.Parallel()
		runner := &fakePageSpeed{result: &provider.PageSpeedResult{Score: 88, Percent: 87.6, LargestContentfulPaint: "2.4 s"}}
		entries, err := NewPageSpeedCheck(runner).Run(context.Background(), testInput(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		score := entryValue(t, entries, "Speed Score")
		if score.Value != "88/100" || score.RecordValue != "87.6" {
			t.Errorf("unexpected entry %+v", score)
		}
	})

	t.Run("provider data error fails the check", func(t *testing.T) {
		t.Parallel()
		runner := &fakePageSpeed{err: &model.ProviderDataError{Provider: "pagespeed", Field: "lighthouseResult"}}
		_, err := NewPageSpeedCheck(runner).Run(context.Background(), testInput(nil))
		var pde *model.ProviderDataError
		if !errors.As(err, &pde) {
			t.Errorf("expected ProviderDataError, got %v", err)
		}
	})
}

// TestMobileFriendlyCheck tests that the verdict is shown verbatim.
func TestMobileFriendlyCheck(t *testing.T) {
	t.Parallel()

	entries, err := NewMobileFriendlyCheck(&fakeMobile{verdict: "NOT_MOBILE_FRIENDLY"}).Run(context.Background(), testInput(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := entryValue(t, entries, "Mobile Friendly").Value; got != "NOT_MOBILE_FRIENDLY" {
		t.Errorf("got %q", got)
	}
}
