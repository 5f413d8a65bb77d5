package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/seoaudit/internal/metrics"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/page"
)

// Defaults for Client.
const (
	// DefaultProxyEndpoint is the read-through proxy. The escaped target URL
	// is appended to it.
	DefaultProxyEndpoint = "https://api.allorigins.win/get?url="

	// DefaultUserAgent identifies the auditor to upstreams.
	DefaultUserAgent = "seoaudit/1.0 (+https://github.com/nao1215/seoaudit)"

	// DefaultMaxBodySize limits response bodies to 10MB.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024

	// DefaultTimeout bounds each outbound request.
	DefaultTimeout = 30 * time.Second
)

// Response is a page read through the proxy.
type Response struct {
	// URL is the target URL that was fetched.
	URL string

	// Body is the decoded contents field of the envelope.
	Body string

	// StatusCode is the target's status as reported by the proxy. When the
	// proxy does not report it, the proxy's own status is used.
	StatusCode int

	// ContentType is the target's content type as reported by the proxy.
	ContentType string
}

// OK reports whether the target answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// envelope is the proxy's JSON response.
type envelope struct {
	Contents *string `json:"contents"`
	Status   *struct {
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
		HTTPCode    int    `json:"http_code"`
	} `json:"status"`
}

// Client performs outbound requests for an audit.
// It is safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	proxyEndpoint string
	userAgent     string
	maxBodySize   int64
	timeout       time.Duration
	retry         *RetryPolicy
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithProxyEndpoint sets the proxy URL prefix the escaped target is appended to.
func WithProxyEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.proxyEndpoint = endpoint
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{},
		proxyEndpoint: DefaultProxyEndpoint,
		userAgent:     DefaultUserAgent,
		maxBodySize:   DefaultMaxBodySize,
		timeout:       DefaultTimeout,
		retry:         NewRetryPolicy(),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProxyURL returns the proxy URL that fetches target.
func (c *Client) ProxyURL(target string) string {
	return c.proxyEndpoint + url.QueryEscape(target)
}

// ViaProxy reads target through the proxy and decodes the envelope.
func (c *Client) ViaProxy(ctx context.Context, target string) (*Response, error) {
	proxyURL := c.ProxyURL(target)

	var env envelope
	var proxyStatus int
	err := c.withRetry(ctx, metrics.UpstreamProxy, proxyURL, func(ctx context.Context) error {
		status, body, err := c.do(ctx, metrics.UpstreamProxy, http.MethodGet, proxyURL, nil, "")
		if err != nil {
			return err
		}
		proxyStatus = status
		env = envelope{}
		if err := json.Unmarshal(body, &env); err != nil {
			return &model.ParseError{Source: "proxy envelope", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if env.Contents == nil {
		return nil, &model.ParseError{Source: "proxy envelope", Err: model.ErrMissingContents}
	}

	resp := &Response{
		URL:        target,
		Body:       *env.Contents,
		StatusCode: proxyStatus,
	}
	if env.Status != nil {
		if env.Status.HTTPCode != 0 {
			resp.StatusCode = env.Status.HTTPCode
		}
		resp.ContentType = env.Status.ContentType
	}
	return resp, nil
}

// Document reads target through the proxy and parses it as HTML.
func (c *Client) Document(ctx context.Context, target string) (*page.Document, error) {
	resp, err := c.ViaProxy(ctx, target)
	if err != nil {
		return nil, err
	}
	doc, err := page.Parse(resp.Body)
	if err != nil {
		return nil, &model.ParseError{Source: "html document", Err: err}
	}
	return doc, nil
}

// GetJSON GETs rawURL directly and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL, source string, v any) error {
	upstream := upstreamOf(source)
	return c.withRetry(ctx, upstream, rawURL, func(ctx context.Context) error {
		_, body, err := c.do(ctx, upstream, http.MethodGet, rawURL, nil, "")
		if err != nil {
			return err
		}
		return decodeJSON(body, source, v)
	})
}

// PostJSON POSTs payload as JSON to rawURL and decodes the JSON response into v.
func (c *Client) PostJSON(ctx context.Context, rawURL, source string, payload, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", source, err)
	}
	upstream := upstreamOf(source)
	return c.withRetry(ctx, upstream, rawURL, func(ctx context.Context) error {
		_, body, err := c.do(ctx, upstream, http.MethodPost, rawURL, data, "application/json")
		if err != nil {
			return err
		}
		return decodeJSON(body, source, v)
	})
}

// Probe GETs rawURL directly and returns the status code. Redirects are
// followed. Non-2xx statuses are not errors; transport failures are
// returned as *model.NetworkError.
func (c *Client) Probe(ctx context.Context, rawURL string) (int, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, &model.NetworkError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(metrics.UpstreamOther, 0)
		return 0, &model.NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck // drain for connection reuse

	metrics.ObserveUpstream(metrics.UpstreamOther, resp.StatusCode)
	return resp.StatusCode, nil
}

// upstreamOf names the upstream of a JSON request by its source, e.g.
// "pagespeed response" is the pagespeed upstream.
func upstreamOf(source string) string {
	return metrics.UpstreamLabel(strings.TrimSuffix(source, " response"))
}

func (c *Client) withRetry(ctx context.Context, upstream, rawURL string, fn func(context.Context) error) error {
	return c.retry.Do(ctx, fn, func(attempt int, err error) {
		metrics.ObserveRetry(upstream)
		c.logger.Debug("retrying request",
			"host", metrics.SanitizeHost(rawURL),
			"attempt", attempt,
			"error", err,
		)
	})
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// do performs one request and returns the status and body of a 2xx response.
func (c *Client) do(ctx context.Context, upstream, method, rawURL string, payload []byte, contentType string) (int, []byte, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, nil, &model.NetworkError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(upstream, 0)
		return 0, nil, &model.NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(upstream, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck // drain for connection reuse
		return resp.StatusCode, nil, &model.NetworkError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, &model.NetworkError{URL: rawURL, Err: err}
	}
	return resp.StatusCode, data, nil
}

func decodeJSON(body []byte, source string, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &model.ParseError{Source: source, Err: err}
	}
	return nil
}
