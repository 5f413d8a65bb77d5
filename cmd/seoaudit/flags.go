package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/seoaudit/internal/check"
	"github.com/nao1215/seoaudit/internal/config"
	"github.com/nao1215/seoaudit/internal/fetch"
	"github.com/nao1215/seoaudit/internal/provider"
)

// addPipelineFlags registers the flags shared by every command that runs
// audits.
func addPipelineFlags(cmd *cobra.Command) {
	// Check flags
	cmd.Flags().StringP("keyword", "k", check.DefaultKeyword,
		"Keyword measured by the keyword density check")
	cmd.Flags().Int("broken-links", check.DefaultBrokenLinkSample,
		"Number of anchors probed by the broken link check")
	cmd.Flags().String("strategy", provider.StrategyMobile,
		"PageSpeed strategy (mobile or desktop)")
	cmd.Flags().BoolP("parallel", "P", false,
		"Run all categories at once instead of in tab order")

	// Upstream flags
	cmd.Flags().String("api-key", "",
		"Google API key (default: $"+config.EnvAPIKey+")")
	cmd.Flags().String("proxy", fetch.DefaultProxyEndpoint,
		"Read-through proxy endpoint; the escaped target URL is appended")
	cmd.Flags().String("socks-proxy", "",
		"Route outbound connections through a SOCKS5 proxy (host:port)")
	cmd.Flags().DurationP("timeout", "T", config.DefaultTimeout,
		"Timeout for each outbound request")
	cmd.Flags().Int("retries", config.DefaultRetryAttempts,
		"Attempts for a request failing with a network error")
}

// applyPipelineFlags copies the flags of addPipelineFlags into cfg.
// Check settings given on the command line win over the config file.
func applyPipelineFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if cfg.Keyword, err = flags.GetString("keyword"); err != nil {
		return err
	}
	if cfg.BrokenLinkSample, err = flags.GetInt("broken-links"); err != nil {
		return err
	}
	if cfg.Strategy, err = flags.GetString("strategy"); err != nil {
		return err
	}
	if cfg.ParallelCategories, err = flags.GetBool("parallel"); err != nil {
		return err
	}

	apiKey, err := flags.GetString("api-key")
	if err != nil {
		return err
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if cfg.ProxyEndpoint, err = flags.GetString("proxy"); err != nil {
		return err
	}
	if cfg.SOCKSProxy, err = flags.GetString("socks-proxy"); err != nil {
		return err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.RetryAttempts, err = flags.GetInt("retries"); err != nil {
		return err
	}

	if cfg.SiteConfigs != nil {
		cfg.SiteConfigs = cfg.SiteConfigs.Pin(config.Pinned{
			Keyword:          flags.Changed("keyword"),
			BrokenLinkSample: flags.Changed("broken-links"),
			Strategy:         flags.Changed("strategy"),
		})
	}
	return nil
}
