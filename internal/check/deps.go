package check

import (
	"context"

	"github.com/nao1215/seoaudit/internal/fetch"
	"github.com/nao1215/seoaudit/internal/provider"
)

// SearchCounter returns the approximate result count of a search query.
type SearchCounter interface {
	ResultCount(ctx context.Context, query string) (string, error)
}

// ProxyFetcher reads a URL through the read-through proxy.
type ProxyFetcher interface {
	ViaProxy(ctx context.Context, target string) (*fetch.Response, error)
}

// LinkProber returns the status code of a direct GET.
type LinkProber interface {
	Probe(ctx context.Context, rawURL string) (int, error)
}

// PageSpeedRunner runs a PageSpeed analysis.
type PageSpeedRunner interface {
	Run(ctx context.Context, target string) (*provider.PageSpeedResult, error)
}

// MobileClassifier returns a mobile friendliness verdict.
type MobileClassifier interface {
	Classify(ctx context.Context, target string) (string, error)
}

// Deps are the collaborators of the built-in checks.
type Deps struct {
	Search    SearchCounter
	Proxy     ProxyFetcher
	Prober    LinkProber
	PageSpeed PageSpeedRunner
	Mobile    MobileClassifier
}

// Options tunes the built-in checks.
type Options struct {
	// Keyword is the term measured by the keyword density check.
	Keyword string

	// BrokenLinkSample is the number of anchors probed for broken links.
	BrokenLinkSample int

	// LinkProbeConcurrency bounds concurrent link probes.
	LinkProbeConcurrency int

	// RobotsUserAgent is the agent crawl permission is tested for.
	RobotsUserAgent string
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the default check options.
func DefaultOptions() Options {
	return Options{
		Keyword:              DefaultKeyword,
		BrokenLinkSample:     DefaultBrokenLinkSample,
		LinkProbeConcurrency: 5,
		RobotsUserAgent:      "*",
	}
}

// Defaults for Options.
const (
	DefaultKeyword          = "seo"
	DefaultBrokenLinkSample = 10
)

// WithKeyword sets the keyword density term.
func WithKeyword(kw string) Option {
	return func(o *Options) {
		if kw != "" {
			o.Keyword = kw
		}
	}
}

// WithBrokenLinkSample sets the number of probed anchors.
func WithBrokenLinkSample(n int) Option {
	return func(o *Options) {
		o.BrokenLinkSample = n
	}
}

// WithLinkProbeConcurrency sets the number of concurrent link probes.
func WithLinkProbeConcurrency(n int) Option {
	return func(o *Options) {
		o.LinkProbeConcurrency = n
	}
}

// Default builds the registry of built-in checks in display order.
func Default(deps Deps, opts ...Option) *Registry {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	r := NewRegistry()

	// Technical
	r.MustRegister(NewIndexingCheck(deps.Search))
	r.MustRegister(NewSitemapCheck(deps.Proxy))
	r.MustRegister(NewRobotsCheck(deps.Proxy, options.RobotsUserAgent))
	r.MustRegister(NewHTTPSCheck())
	r.MustRegister(NewBrokenLinksCheck(deps.Prober, options.BrokenLinkSample, options.LinkProbeConcurrency))

	// On-page
	r.MustRegister(NewMetaTagsCheck())
	r.MustRegister(NewHeadingsCheck())
	r.MustRegister(NewImageAltCheck())
	r.MustRegister(NewKeywordDensityCheck(options.Keyword))
	r.MustRegister(NewWordCountCheck())

	// Off-page
	r.MustRegister(NewBacklinksCheck(deps.Search))
	r.MustRegister(NewDomainAuthorityCheck())

	// UX
	r.MustRegister(NewPageSpeedCheck(deps.PageSpeed))
	r.MustRegister(NewMobileFriendlyCheck(deps.Mobile))

	return r
}
