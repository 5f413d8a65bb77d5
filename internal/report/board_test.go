package report

import (
	"errors"
	"sync"
	"testing"

	"github.com/nao1215/seoaudit/internal/model"
)

func TestTabs(t *testing.T) {
	t.Parallel()

	t.Run("invalid initial tab falls back to technical", func(t *testing.T) {
		t.Parallel()
		if got := NewTabs("social").Active(); got != model.CategoryTechnical {
			t.Errorf("expected technical, got %s", got)
		}
	})

	t.Run("exactly one tab is active after switching", func(t *testing.T) {
		t.Parallel()

		tabs := NewTabs(model.CategoryTechnical)
		if err := tabs.Switch(model.CategoryUX); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		active := 0
		for _, c := range model.Categories() {
			if tabs.IsActive(c) {
				active++
			}
		}
		if active != 1 || !tabs.IsActive(model.CategoryUX) {
			t.Errorf("expected only UX active, got %d active", active)
		}
	})

	t.Run("unknown tab is rejected and the active tab kept", func(t *testing.T) {
		t.Parallel()

		tabs := NewTabs(model.CategoryOnPage)
		if err := tabs.Switch("social"); !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("expected ErrUnknownCategory, got %v", err)
		}
		if tabs.Active() != model.CategoryOnPage {
			t.Errorf("expected on-page to stay active, got %s", tabs.Active())
		}
	})
}

func TestBoard(t *testing.T) {
	t.Parallel()

	t.Run("entries land on the surface of their category", func(t *testing.T) {
		t.Parallel()

		b := NewBoard()
		_ = b.Append(model.NewEntry(model.CategoryTechnical, "HTTPS", "Yes"))
		_ = b.Append(model.NewEntry(model.CategoryUX, "Speed Score", "90/100"))
		_ = b.Append(model.NewEntry(model.CategoryTechnical, "Sitemap", "Found"))

		tech := b.Entries(model.CategoryTechnical)
		if len(tech) != 2 || tech[0].Label != "HTTPS" || tech[1].Label != "Sitemap" {
			t.Errorf("unexpected technical surface %v", tech)
		}
		if len(b.Entries(model.CategoryUX)) != 1 {
			t.Error("expected one UX entry")
		}
		if len(b.Entries(model.CategoryOnPage)) != 0 {
			t.Error("expected empty on-page surface")
		}
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		t.Parallel()

		b := NewBoard()
		err := b.Append(model.NewEntry("social", "Shares", 3))
		if !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("expected ErrUnknownCategory, got %v", err)
		}
	})

	t.Run("reset clears surfaces and notification", func(t *testing.T) {
		t.Parallel()

		b := NewBoard()
		_ = b.Append(model.NewEntry(model.CategoryOffPage, "Domain Authority", "Unavailable"))
		b.Notify("Error: boom")
		b.SetExportVisible(true)
		b.Reset()

		for _, c := range model.Categories() {
			if len(b.Entries(c)) != 0 {
				t.Errorf("expected %s surface to be empty", c)
			}
		}
		if b.Notification() != "" {
			t.Errorf("expected notification cleared, got %q", b.Notification())
		}
		if b.NotificationCount() != 1 {
			t.Errorf("expected notification count to survive reset, got %d", b.NotificationCount())
		}
		if !b.ExportVisible() {
			t.Error("expected reset to leave export visibility alone")
		}
	})

	t.Run("switching tabs keeps entries", func(t *testing.T) {
		t.Parallel()

		b := NewBoard()
		_ = b.Append(model.NewEntry(model.CategoryOnPage, "Title", "Home"))
		if err := b.Tabs().Switch(model.CategoryOnPage); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := b.Tabs().Switch(model.CategoryTechnical); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(b.Entries(model.CategoryOnPage)) != 1 {
			t.Error("expected entries to survive tab switches")
		}
	})

	t.Run("view reflects the board", func(t *testing.T) {
		t.Parallel()

		b := NewBoardWithTab(model.CategoryUX)
		_ = b.Append(model.NewEntry(model.CategoryUX, "Mobile Friendly", "MOBILE_FRIENDLY"))
		b.SetExportVisible(true)

		view := b.View()
		if view.ActiveTab != "ux" || !view.ExportVisible {
			t.Errorf("unexpected view %+v", view)
		}
		if len(view.Tabs) != 4 {
			t.Fatalf("expected 4 tabs, got %d", len(view.Tabs))
		}
		last := view.Tabs[3]
		if !last.Active || last.Title != "UX" || len(last.Entries) != 1 {
			t.Errorf("unexpected UX tab %+v", last)
		}
		if view.Tabs[0].Active {
			t.Error("expected technical tab inactive")
		}
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		t.Parallel()

		b := NewBoard()
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = b.Append(model.NewEntry(model.CategoryTechnical, "x", "y"))
			}()
		}
		wg.Wait()
		if got := len(b.Entries(model.CategoryTechnical)); got != 50 {
			t.Errorf("expected 50 entries, got %d", got)
		}
	})
}
