package pipeline

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nao1215/seoaudit/internal/check"
	"github.com/nao1215/seoaudit/internal/config"
	"github.com/nao1215/seoaudit/internal/fetch"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/provider"
	"github.com/nao1215/seoaudit/internal/target"
)

// DefaultPipeline creates a pipeline running every built-in check with the
// upstreams and tuning of cfg. headers are sent with every outbound request.
//
// The pipelineOpts are applied before the clients are built, so a logger
// passed with WithLogger is shared by the fetch client.
func DefaultPipeline(cfg *config.Config, headers map[string]string, pipelineOpts ...Option) (*Pipeline, error) {
	p := New(nil, nil, pipelineOpts...)

	httpClient, err := fetch.NewHTTPClient(fetch.TransportConfig{
		SOCKSAddress: cfg.SOCKSProxy,
		Timeout:      cfg.Timeout,
		Headers:      headers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	client := fetch.NewClient(
		fetch.WithHTTPClient(httpClient),
		fetch.WithProxyEndpoint(cfg.ProxyEndpoint),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithRetryPolicy(fetch.NewRetryPolicy(fetch.WithMaxAttempts(cfg.RetryAttempts))),
		fetch.WithLogger(p.logger),
	)

	deps := check.Deps{
		Search:    provider.NewSearchScraper(client, cfg.SearchEndpoint),
		Proxy:     client,
		Prober:    client,
		PageSpeed: provider.NewPageSpeedClient(client, cfg.PageSpeedEndpoint, cfg.APIKey, cfg.Strategy),
		Mobile:    provider.NewMobileFriendlyClient(client, cfg.MobileFriendlyEndpoint, cfg.APIKey),
	}

	p.registry = check.Default(deps,
		check.WithKeyword(cfg.Keyword),
		check.WithBrokenLinkSample(cfg.BrokenLinkSample),
		check.WithLinkProbeConcurrency(cfg.LinkProbeConcurrency),
	)
	p.newPages = func() PageSet {
		return fetch.NewPageCache(client)
	}
	p.parallelCategories = p.parallelCategories || cfg.ParallelCategories

	p.logger.Debug("pipeline configured",
		"checks", p.registry.Names(),
		"proxy", cfg.ProxyEndpoint,
		"strategy", cfg.Strategy,
		"keyword", cfg.Keyword,
	)
	return p, nil
}

// SiteFactory returns a factory that builds a pipeline for each input with
// the per-site overrides of cfg applied. Inputs that cannot be normalized get
// the global settings; the pipeline rejects them when run.
func SiteFactory(cfg *config.Config, pipelineOpts ...Option) func(input string) (*Pipeline, error) {
	return func(input string) (*Pipeline, error) {
		site, headers := cfg, map[string]string(nil)
		if t, err := target.Normalize(input); err == nil {
			if u, err := url.Parse(t.NormalizedURL); err == nil {
				site, headers = cfg.ForSite(u.Hostname())
			}
		}
		return DefaultPipeline(site, headers, pipelineOpts...)
	}
}

// SiteExecutor is an Executor that builds a fresh pipeline for every input,
// typically with SiteFactory. A pipeline that cannot be built is reported
// through display.Notify like any other failure.
type SiteExecutor func(input string) (*Pipeline, error)

// Run builds a pipeline for raw and runs it.
func (f SiteExecutor) Run(ctx context.Context, raw string, display Display) (*model.Audit, error) {
	p, err := f(raw)
	if err != nil {
		display.Notify("Error: " + err.Error())
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return p.Run(ctx, raw, display)
}
