package page

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Ellipsis marks a truncated display value.
const Ellipsis = "..."

// MinKeywordTokenLength is the shortest token counted by KeywordDensity.
const MinKeywordTokenLength = 3

// Tokenize splits text on runs of Unicode whitespace.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// WordCount returns the number of whitespace separated tokens in text.
func WordCount(text string) int {
	return len(Tokenize(text))
}

// Truncate shortens s to max runes and appends Ellipsis. Strings of max
// runes or fewer are returned unchanged.
func Truncate(s string, max int) string {
	if max < 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + Ellipsis
}

// Density formats (matches/total)*100 with two decimals.
// A zero total yields "0.00".
func Density(matches, total int) string {
	if total <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(matches)/float64(total)*100)
}

// KeywordDensity returns the share of tokens in text that contain keyword,
// formatted by Density. Matching is case-insensitive using Unicode case
// folding; tokens shorter than MinKeywordTokenLength runes are ignored
// on both sides of the ratio. An empty keyword matches nothing.
func KeywordDensity(text, keyword string) string {
	fold := cases.Fold()
	kw := fold.String(strings.TrimSpace(keyword))

	total, matches := 0, 0
	for _, tok := range Tokenize(text) {
		if utf8.RuneCountInString(tok) < MinKeywordTokenLength {
			continue
		}
		total++
		if kw != "" && strings.Contains(fold.String(tok), kw) {
			matches++
		}
	}
	return Density(matches, total)
}
