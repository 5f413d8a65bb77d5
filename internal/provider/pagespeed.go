package provider

import (
	"context"
	"math"
	"net/url"

	"github.com/nao1215/seoaudit/internal/model"
)

// DefaultPageSpeedEndpoint is the PageSpeed Insights v5 API.
const DefaultPageSpeedEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Strategy values accepted by PageSpeed Insights.
const (
	StrategyMobile  = "mobile"
	StrategyDesktop = "desktop"
)

const pageSpeedProvider = "pagespeed"

// JSONGetter performs a GET and decodes the JSON body.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL, source string, v any) error
}

// PageSpeedResult holds the values an audit reports from PageSpeed Insights.
type PageSpeedResult struct {
	// Score is the performance score scaled to 0..100 and rounded.
	Score int

	// Percent is the performance score scaled to 0..100 without rounding to
	// an integer, e.g. 87.6 for a score of 0.876.
	Percent float64

	// LargestContentfulPaint is the provider's display string, e.g. "2.1 s".
	// It is NotAvailable when the audit is absent.
	LargestContentfulPaint string
}

type pageSpeedResponse struct {
	LighthouseResult *struct {
		Categories struct {
			Performance *struct {
				Score *float64 `json:"score"`
			} `json:"performance"`
		} `json:"categories"`
		Audits map[string]struct {
			DisplayValue string `json:"displayValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

// PageSpeedClient queries PageSpeed Insights.
type PageSpeedClient struct {
	getter   JSONGetter
	endpoint string
	apiKey   string
	strategy string
}

// NewPageSpeedClient creates a PageSpeedClient. Empty endpoint and
// strategy select the defaults; an empty apiKey omits the key parameter.
func NewPageSpeedClient(getter JSONGetter, endpoint, apiKey, strategy string) *PageSpeedClient {
	if endpoint == "" {
		endpoint = DefaultPageSpeedEndpoint
	}
	if strategy == "" {
		strategy = StrategyMobile
	}
	return &PageSpeedClient{getter: getter, endpoint: endpoint, apiKey: apiKey, strategy: strategy}
}

// RequestURL returns the API URL for target.
func (c *PageSpeedClient) RequestURL(target string) string {
	q := url.Values{}
	q.Set("url", target)
	q.Set("strategy", c.strategy)
	q.Set("category", "performance")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	return c.endpoint + "?" + q.Encode()
}

// Run analyzes target.
func (c *PageSpeedClient) Run(ctx context.Context, target string) (*PageSpeedResult, error) {
	var resp pageSpeedResponse
	if err := c.getter.GetJSON(ctx, c.RequestURL(target), "pagespeed response", &resp); err != nil {
		return nil, err
	}

	lr := resp.LighthouseResult
	if lr == nil {
		return nil, &model.ProviderDataError{Provider: pageSpeedProvider, Field: "lighthouseResult"}
	}
	if lr.Categories.Performance == nil {
		return nil, &model.ProviderDataError{Provider: pageSpeedProvider, Field: "lighthouseResult.categories.performance"}
	}
	if lr.Categories.Performance.Score == nil {
		return nil, &model.ProviderDataError{Provider: pageSpeedProvider, Field: "lighthouseResult.categories.performance.score"}
	}

	// Percent keeps hundredths, dropping float noise such as 28.999999999999996.
	score := *lr.Categories.Performance.Score
	result := &PageSpeedResult{
		Score:                  int(math.Round(score * 100)),
		Percent:                math.Round(score*10000) / 100,
		LargestContentfulPaint: NotAvailable,
	}
	if a, ok := lr.Audits["largest-contentful-paint"]; ok && a.DisplayValue != "" {
		result.LargestContentfulPaint = a.DisplayValue
	}
	return result, nil
}
