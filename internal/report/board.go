package report

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nao1215/seoaudit/internal/model"
)

// ErrUnknownCategory is returned for an entry or tab outside the known
// categories.
var ErrUnknownCategory = errors.New("unknown category")

// Tabs tracks the active category. Exactly one tab is active at a time.
// It is safe for concurrent use.
type Tabs struct {
	mu     sync.RWMutex
	active model.Category
}

// NewTabs creates Tabs with initial active. An invalid initial category
// selects the technical tab.
func NewTabs(initial model.Category) *Tabs {
	if !initial.Valid() {
		initial = model.CategoryTechnical
	}
	return &Tabs{active: initial}
}

// Switch makes c the active tab. Switching never refetches anything; the
// surfaces keep their entries.
func (t *Tabs) Switch(c model.Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = c
	return nil
}

// Active returns the active tab.
func (t *Tabs) Active() model.Category {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// IsActive reports whether c is the active tab.
func (t *Tabs) IsActive(c model.Category) bool {
	return t.Active() == c
}

// Board is the live view of an audit: one append-only surface per
// category, the export action and the last notification.
// It is safe for concurrent use.
type Board struct {
	tabs *Tabs

	mu            sync.RWMutex
	surfaces      map[model.Category][]model.ResultEntry
	exportVisible bool
	notification  string
	notifications int
}

// NewBoard creates an empty Board whose technical tab is active.
func NewBoard() *Board {
	return NewBoardWithTab(model.CategoryTechnical)
}

// NewBoardWithTab creates an empty Board with tab active.
func NewBoardWithTab(tab model.Category) *Board {
	b := &Board{tabs: NewTabs(tab)}
	b.Reset()
	return b
}

// Tabs returns the tab state of the board.
func (b *Board) Tabs() *Tabs {
	return b.tabs
}

// Reset clears every surface and the last notification. The active tab
// and export visibility are left alone.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.surfaces = make(map[model.Category][]model.ResultEntry, len(model.Categories()))
	for _, c := range model.Categories() {
		b.surfaces[c] = make([]model.ResultEntry, 0)
	}
	b.notification = ""
}

// Append adds entry to the surface of its category.
func (b *Board) Append(entry model.ResultEntry) error {
	if !entry.Category.Valid() {
		return fmt.Errorf("%w: %q for %q", ErrUnknownCategory, entry.Category, entry.Label)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.surfaces[entry.Category] = append(b.surfaces[entry.Category], entry)
	return nil
}

// SetExportVisible shows or hides the export action.
func (b *Board) SetExportVisible(visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exportVisible = visible
}

// Notify records message as the last notification.
func (b *Board) Notify(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notification = message
	b.notifications++
}

// Entries returns a copy of the surface of c.
func (b *Board) Entries(c model.Category) []model.ResultEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.ResultEntry, len(b.surfaces[c]))
	copy(out, b.surfaces[c])
	return out
}

// ExportVisible reports whether the export action is shown.
func (b *Board) ExportVisible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportVisible
}

// Notification returns the last notification, or "" after a reset.
func (b *Board) Notification() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.notification
}

// NotificationCount returns how many notifications were shown in total.
func (b *Board) NotificationCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.notifications
}

// TabView is one tab of a BoardView.
type TabView struct {
	Category model.Category      `json:"category"`
	Title    string              `json:"title"`
	Active   bool                `json:"active"`
	Entries  []model.ResultEntry `json:"entries"`
}

// BoardView is a consistent copy of a Board.
type BoardView struct {
	Tabs          []TabView `json:"tabs"`
	ActiveTab     string    `json:"active_tab"`
	ExportVisible bool      `json:"export_visible"`
	Notification  string    `json:"notification,omitempty"`
}

// View returns a copy of the board taken under one lock.
func (b *Board) View() BoardView {
	active := b.tabs.Active()

	b.mu.RLock()
	defer b.mu.RUnlock()

	view := BoardView{
		ActiveTab:     string(active),
		ExportVisible: b.exportVisible,
		Notification:  b.notification,
	}
	for _, c := range model.Categories() {
		entries := make([]model.ResultEntry, len(b.surfaces[c]))
		copy(entries, b.surfaces[c])
		view.Tabs = append(view.Tabs, TabView{
			Category: c,
			Title:    c.Title(),
			Active:   c == active,
			Entries:  entries,
		})
	}
	return view
}
