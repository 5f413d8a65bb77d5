package model

import "fmt"

// Category groups checks and the display surface their results land on.
type Category string

// Report categories, in display order.
const (
	// CategoryTechnical covers crawlability and indexing.
	CategoryTechnical Category = "technical"
	// CategoryOnPage covers tags and content of the page itself.
	CategoryOnPage Category = "onpage"
	// CategoryOffPage covers signals gathered from other sites.
	CategoryOffPage Category = "offpage"
	// CategoryUX covers speed and mobile usability.
	CategoryUX Category = "ux"
)

// categoryOrder is the canonical order of categories.
var categoryOrder = []Category{
	CategoryTechnical,
	CategoryOnPage,
	CategoryOffPage,
	CategoryUX,
}

// Categories returns all categories in display order.
// The returned slice is a copy and may be modified by the caller.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryOnPage, CategoryOffPage, CategoryUX:
		return true
	default:
		return false
	}
}

// Title returns the human-readable tab title for the category.
func (c Category) Title() string {
	switch c {
	case CategoryTechnical:
		return "Technical"
	case CategoryOnPage:
		return "On-Page"
	case CategoryOffPage:
		return "Off-Page"
	case CategoryUX:
		return "UX"
	default:
		return string(c)
	}
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a user supplied tab name into a Category.
// Both the identifier ("onpage") and the title ("On-Page") are accepted.
func ParseCategory(s string) (Category, error) {
	for _, c := range categoryOrder {
		if s == string(c) || s == c.Title() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
