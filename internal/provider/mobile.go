package provider

import (
	"context"
	"net/url"
)

// DefaultMobileFriendlyEndpoint is the Mobile-Friendly Test API.
const DefaultMobileFriendlyEndpoint = "https://searchconsole.googleapis.com/v1/urlTestingTools/mobileFriendlyTest:run"

// UnknownClassification is reported when the provider gives no verdict.
const UnknownClassification = "Unknown"

// JSONPoster performs a POST with a JSON body and decodes the JSON response.
type JSONPoster interface {
	PostJSON(ctx context.Context, rawURL, source string, payload, v any) error
}

// MobileFriendlyClient queries the Mobile-Friendly Test.
type MobileFriendlyClient struct {
	poster   JSONPoster
	endpoint string
	apiKey   string
}

// NewMobileFriendlyClient creates a MobileFriendlyClient. An empty endpoint
// selects the default; an empty apiKey omits the key parameter.
func NewMobileFriendlyClient(poster JSONPoster, endpoint, apiKey string) *MobileFriendlyClient {
	if endpoint == "" {
		endpoint = DefaultMobileFriendlyEndpoint
	}
	return &MobileFriendlyClient{poster: poster, endpoint: endpoint, apiKey: apiKey}
}

// RequestURL returns the API URL.
func (c *MobileFriendlyClient) RequestURL() string {
	if c.apiKey == "" {
		return c.endpoint
	}
	return c.endpoint + "?key=" + url.QueryEscape(c.apiKey)
}

// Classify returns the provider's mobileFriendliness verdict for target,
// e.g. "MOBILE_FRIENDLY", or UnknownClassification when absent.
func (c *MobileFriendlyClient) Classify(ctx context.Context, target string) (string, error) {
	var resp struct {
		MobileFriendliness string `json:"mobileFriendliness"`
	}
	payload := map[string]string{"url": target}
	if err := c.poster.PostJSON(ctx, c.RequestURL(), "mobile-friendly response", payload, &resp); err != nil {
		return "", err
	}
	if resp.MobileFriendliness == "" {
		return UnknownClassification, nil
	}
	return resp.MobileFriendliness, nil
}
