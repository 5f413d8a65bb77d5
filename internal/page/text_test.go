package page

import (
	"strings"
	"testing"
)

// TestTruncate tests display truncation.
func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 80)
	short := strings.Repeat("b", 40)

	testCases := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"80 chars truncated to 60", long, 60, strings.Repeat("a", 60) + Ellipsis},
		{"40 chars unchanged", short, 60, short},
		{"exactly max unchanged", strings.Repeat("c", 60), 60, strings.Repeat("c", 60)},
		{"counts runes", strings.Repeat("日", 5), 3, "日日日" + Ellipsis},
		{"empty", "", 60, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tc.input, tc.max); got != tc.expected {
				t.Errorf("Truncate() = %q, expected %q", got, tc.expected)
			}
		})
	}
}

// TestDensity tests percentage formatting.
func TestDensity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		matches  int
		total    int
		expected string
	}{
		{0, 0, "0.00"},
		{1, 3, "33.33"},
		{2, 8, "25.00"},
		{5, 5, "100.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if got := Density(tc.matches, tc.total); got != tc.expected {
				t.Errorf("Density(%d, %d) = %q, expected %q", tc.matches, tc.total, got, tc.expected)
			}
		})
	}
}

// TestKeywordDensity tests keyword matching over tokens.
func TestKeywordDensity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		text     string
		keyword  string
		expected string
	}{
		{"empty text", "", "seo", "0.00"},
		{"only short tokens", "a an to of", "seo", "0.00"},
		{"case insensitive substring", "SEO tools help with seo-friendly pages", "seo", "33.33"},
		{"short tokens are ignored", "is SEO ok", "seo", "100.00"},
		{"no match", "nothing here matches", "seo", "0.00"},
		{"empty keyword", "some words here", "", "0.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := KeywordDensity(tc.text, tc.keyword); got != tc.expected {
				t.Errorf("KeywordDensity(%q, %q) = %q, expected %q", tc.text, tc.keyword, got, tc.expected)
			}
		})
	}
}

// TestWordCount tests whitespace tokenization.
func TestWordCount(t *testing.T) {
	t.Parallel()

	if got := WordCount("  one two\tthree\nfour  "); got != 4 {
		t.Errorf("got %d, expected 4", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("got %d, expected 0", got)
	}
}
