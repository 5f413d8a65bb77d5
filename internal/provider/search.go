package provider

import (
	"context"
	"net/url"
	"regexp"

	"github.com/nao1215/seoaudit/internal/fetch"
)

// DefaultSearchEndpoint is the search URL prefix the escaped query is appended to.
const DefaultSearchEndpoint = "https://www.google.com/search?q="

// NotAvailable is reported when a count cannot be read from the result page.
const NotAvailable = "N/A"

// resultCountPattern extracts the approximate result count.
var resultCountPattern = regexp.MustCompile(`About ([\d,]+) results`)

// ProxyFetcher reads a page through the read-through proxy.
type ProxyFetcher interface {
	ViaProxy(ctx context.Context, target string) (*fetch.Response, error)
}

// SearchScraper reads approximate result counts from search result pages.
type SearchScraper struct {
	fetcher  ProxyFetcher
	endpoint string
}

// NewSearchScraper creates a SearchScraper. An empty endpoint selects
// DefaultSearchEndpoint.
func NewSearchScraper(fetcher ProxyFetcher, endpoint string) *SearchScraper {
	if endpoint == "" {
		endpoint = DefaultSearchEndpoint
	}
	return &SearchScraper{fetcher: fetcher, endpoint: endpoint}
}

// SearchURL returns the result page URL for query.
func (s *SearchScraper) SearchURL(query string) string {
	return s.endpoint + url.QueryEscape(query)
}

// ResultCount runs query and returns the count as printed on the result
// page (e.g. "1,230"), or NotAvailable when the page has no count.
func (s *SearchScraper) ResultCount(ctx context.Context, query string) (string, error) {
	resp, err := s.fetcher.ViaProxy(ctx, s.SearchURL(query))
	if err != nil {
		return "", err
	}
	return ExtractResultCount(resp.Body), nil
}

// ExtractResultCount applies the result count pattern to a result page.
func ExtractResultCount(body string) string {
	m := resultCountPattern.FindStringSubmatch(body)
	if m == nil {
		return NotAvailable
	}
	return m[1]
}
