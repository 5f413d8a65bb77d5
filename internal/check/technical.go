package check

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/seoaudit/internal/fetch"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/target"
)

// Presence values.
const (
	valueFound   = "Found"
	valueMissing = "Missing"
	valueYes     = "Yes"
	valueNo      = "No"
)

// IndexingCheck reports the approximate number of indexed pages.
type IndexingCheck struct {
	search SearchCounter
}

// NewIndexingCheck creates an IndexingCheck.
func NewIndexingCheck(search SearchCounter) *IndexingCheck {
	return &IndexingCheck{search: search}
}

// Name returns the check name.
func (c *IndexingCheck) Name() string { return "indexing" }

// Category returns the check category.
func (c *IndexingCheck) Category() model.Category { return model.CategoryTechnical }

// Run queries "site:<url>" and records the count under "indexed".
func (c *IndexingCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	count, err := c.search.ResultCount(ctx, "site:"+in.Target.NormalizedURL)
	if err != nil {
		return nil, err
	}
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Indexed Pages", "~"+count).Recorded(RecordKeyIndexed, count),
	}, nil
}

// SitemapCheck reports whether /sitemap.xml serves XML.
type SitemapCheck struct {
	proxy ProxyFetcher
}

// NewSitemapCheck creates a SitemapCheck.
func NewSitemapCheck(proxy ProxyFetcher) *SitemapCheck {
	return &SitemapCheck{proxy: proxy}
}

// Name returns the check name.
func (c *SitemapCheck) Name() string { return "sitemap" }

// Category returns the check category.
func (c *SitemapCheck) Category() model.Category { return model.CategoryTechnical }

// Run probes the sitemap. A failed fetch reports "Missing".
func (c *SitemapCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	resp, err := c.proxy.ViaProxy(ctx, target.Resolve(in.Target, "/sitemap.xml"))
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	found := err == nil && resp.OK() && looksLikeXML(resp)
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Sitemap", presence(found)),
	}, nil
}

// looksLikeXML accepts an XML content type, or an XML body when the proxy
// does not report one.
func looksLikeXML(resp *fetch.Response) bool {
	if strings.Contains(strings.ToLower(resp.ContentType), "xml") {
		return true
	}
	if resp.ContentType != "" {
		return false
	}
	body := strings.TrimSpace(resp.Body)
	return strings.HasPrefix(body, "<?xml") ||
		strings.HasPrefix(body, "<urlset") ||
		strings.HasPrefix(body, "<sitemapindex")
}

// RobotsCheck reports whether /robots.txt exists and, if so, what it allows.
type RobotsCheck struct {
	proxy     ProxyFetcher
	userAgent string
}

// NewRobotsCheck creates a RobotsCheck. Crawl permission is tested for
// userAgent, "*" when empty.
func NewRobotsCheck(proxy ProxyFetcher, userAgent string) *RobotsCheck {
	if userAgent == "" {
		userAgent = "*"
	}
	return &RobotsCheck{proxy: proxy, userAgent: userAgent}
}

// Name returns the check name.
func (c *RobotsCheck) Name() string { return "robots" }

// Category returns the check category.
func (c *RobotsCheck) Category() model.Category { return model.CategoryTechnical }

// Run probes robots.txt. A failed fetch reports "Missing".
func (c *RobotsCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	resp, err := c.proxy.ViaProxy(ctx, target.Resolve(in.Target, "/robots.txt"))
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil || !resp.OK() {
		return []model.ResultEntry{model.NewEntry(c.Category(), "robots.txt", valueMissing)}, nil
	}

	entries := []model.ResultEntry{model.NewEntry(c.Category(), "robots.txt", valueFound)}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, []byte(resp.Body))
	if err != nil {
		return entries, nil
	}
	entries = append(entries,
		model.NewEntry(c.Category(), "robots.txt Sitemaps", len(data.Sitemaps)),
		model.NewEntry(c.Category(), "Crawl Allowed", yesNo(data.TestAgent(crawlPath(in.Target), c.userAgent))),
	)
	return entries, nil
}

// crawlPath is the path of the target URL, "/" when empty.
func crawlPath(t model.AuditTarget) string {
	u, err := url.Parse(t.NormalizedURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// HTTPSCheck reports whether the target uses TLS. It makes no requests.
type HTTPSCheck struct{}

// NewHTTPSCheck creates an HTTPSCheck.
func NewHTTPSCheck() *HTTPSCheck {
	return &HTTPSCheck{}
}

// Name returns the check name.
func (c *HTTPSCheck) Name() string { return "https" }

// Category returns the check category.
func (c *HTTPSCheck) Category() model.Category { return model.CategoryTechnical }

// Run reports "Yes" for https targets.
func (c *HTTPSCheck) Run(_ context.Context, in *Input) ([]model.ResultEntry, error) {
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "HTTPS", yesNo(target.IsHTTPS(in.Target))),
	}, nil
}

// BrokenLinksCheck samples the first anchors of the target page and
// counts those that fail or answer with a 4xx/5xx status.
type BrokenLinksCheck struct {
	prober      LinkProber
	sample      int
	concurrency int
}

// NewBrokenLinksCheck creates a BrokenLinksCheck that probes up to sample
// links, concurrency at a time.
func NewBrokenLinksCheck(prober LinkProber, sample, concurrency int) *BrokenLinksCheck {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BrokenLinksCheck{prober: prober, sample: sample, concurrency: concurrency}
}

// Name returns the check name.
func (c *BrokenLinksCheck) Name() string { return "broken-links" }

// Category returns the check category.
func (c *BrokenLinksCheck) Category() model.Category { return model.CategoryTechnical }

// Run reports "<broken>/<sampled>".
func (c *BrokenLinksCheck) Run(ctx context.Context, in *Input) ([]model.ResultEntry, error) {
	doc, err := in.Pages.Page(ctx, in.Target.NormalizedURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(in.Target.NormalizedURL)
	if err != nil {
		return nil, &model.InputError{Input: in.Target.NormalizedURL, Reason: err.Error()}
	}

	links := []string{}
	if c.sample > 0 {
		links = doc.Links(base, c.sample)
	}
	broken := make([]bool, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, link := range links {
		g.Go(func() error {
			code, err := c.prober.Probe(gctx, link)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				broken[i] = true
				return nil
			}
			broken[i] = code >= 400 || code < 200
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	count := 0
	for _, b := range broken {
		if b {
			count++
		}
	}
	return []model.ResultEntry{
		model.NewEntry(c.Category(), "Broken Links", fmt.Sprintf("%d/%d", count, len(links))),
	}, nil
}

func presence(found bool) string {
	if found {
		return valueFound
	}
	return valueMissing
}

func yesNo(ok bool) string {
	if ok {
		return valueYes
	}
	return valueNo
}
