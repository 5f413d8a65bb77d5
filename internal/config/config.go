package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/seoaudit/internal/check"
	"github.com/nao1215/seoaudit/internal/fetch"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/provider"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "seoaudit"

	// EnvAPIKey is the environment variable holding the Google API key.
	// The key is optional; providers are called without it when unset.
	EnvAPIKey = "SEOAUDIT_API_KEY"

	// DefaultTimeout bounds each outbound request. PageSpeed runs routinely
	// take 10-20 seconds, so shorter values produce spurious failures.
	DefaultTimeout = fetch.DefaultTimeout

	// DefaultRetryAttempts is the number of tries for a retryable request.
	DefaultRetryAttempts = 3

	// DefaultBatchSize is the number of audits run concurrently by the CLI.
	DefaultBatchSize = 4

	// DefaultLinkProbeConcurrency bounds concurrent broken link probes.
	DefaultLinkProbeConcurrency = 5

	// DefaultServeAddress is the listen address of the HTTP API.
	DefaultServeAddress = "127.0.0.1:8080"

	// DefaultTab is the tab shown first.
	DefaultTab = string(model.CategoryTechnical)
)

// Config holds all configuration options for seoaudit.
// It is populated from CLI flags, the environment and the config file, then
// passed down explicitly; nothing reads it from global state.
type Config struct {
	// ProxyEndpoint is the read-through proxy; the escaped target is appended.
	ProxyEndpoint string

	// SearchEndpoint is the search page scraped for result counts.
	SearchEndpoint string

	// PageSpeedEndpoint is the PageSpeed Insights API.
	PageSpeedEndpoint string

	// MobileFriendlyEndpoint is the Mobile-Friendly Test API.
	MobileFriendlyEndpoint string

	// APIKey is appended to the Google API requests when set.
	// It is never logged.
	APIKey string

	// Strategy is the PageSpeed strategy, mobile or desktop.
	Strategy string

	// SOCKSProxy routes all outbound connections through a SOCKS5 proxy
	// in host:port form when set.
	SOCKSProxy string

	// Timeout bounds each outbound request.
	Timeout time.Duration

	// RetryAttempts is the number of tries for a retryable request.
	RetryAttempts int

	// UserAgent is sent with every outbound request.
	UserAgent string

	// MaxBodySize limits response bodies. Zero uses the default.
	MaxBodySize int64

	// Keyword is measured by the keyword density check.
	Keyword string

	// BrokenLinkSample is the number of anchors probed per audit.
	BrokenLinkSample int

	// LinkProbeConcurrency bounds concurrent link probes.
	LinkProbeConcurrency int

	// ParallelCategories runs all categories at once instead of in order.
	ParallelCategories bool

	// Verbose enables debug logging.
	Verbose bool

	// BatchSize is the number of audits run concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, .seoaudit is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport, MarkdownReport and HTMLReport select the report format.
	// At most one may be set; the terminal renderer is used otherwise.
	JSONReport     bool
	MarkdownReport bool
	HTMLReport     bool

	// ReportFile is the output file for the report. Stdout when empty.
	ReportFile string

	// PDFFile is where the PDF export is written. No PDF when empty.
	PDFFile string

	// Tab is the tab rendered by the terminal writer.
	Tab string

	// AllTabs makes the terminal writer render every tab.
	AllTabs bool

	// Targets is the list of URLs to audit.
	Targets []string

	// DBDir is the directory of the audit history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB stores every finished audit in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ProxyEndpoint:          fetch.DefaultProxyEndpoint,
		SearchEndpoint:         provider.DefaultSearchEndpoint,
		PageSpeedEndpoint:      provider.DefaultPageSpeedEndpoint,
		MobileFriendlyEndpoint: provider.DefaultMobileFriendlyEndpoint,
		Strategy:               provider.StrategyMobile,
		Timeout:                DefaultTimeout,
		RetryAttempts:          DefaultRetryAttempts,
		UserAgent:              fetch.DefaultUserAgent,
		MaxBodySize:            fetch.DefaultMaxBodySize,
		Keyword:                check.DefaultKeyword,
		BrokenLinkSample:       check.DefaultBrokenLinkSample,
		LinkProbeConcurrency:   DefaultLinkProbeConcurrency,
		BatchSize:              DefaultBatchSize,
		Tab:                    DefaultTab,
		DBDir:                  XDGDataDir(),
	}
}

// ApplyEnv copies settings from the environment. An API key given on the
// command line takes precedence.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		c.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}
}

// XDGDataDir returns the XDG data directory for seoaudit.
// On Linux: ~/.local/share/seoaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for seoaudit.
// On Linux: ~/.config/seoaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for seoaudit.
// On Linux: ~/.cache/seoaudit
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the settings shared by every command.
// The first problem found is returned.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RetryAttempts < 1 {
		return ErrInvalidRetryAttempts
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Strategy != provider.StrategyMobile && c.Strategy != provider.StrategyDesktop {
		return ErrInvalidStrategy
	}
	if strings.TrimSpace(c.Keyword) == "" {
		return ErrEmptyKeyword
	}
	if c.BrokenLinkSample < 0 {
		return ErrInvalidBrokenLinkSample
	}
	if c.Tab != "" {
		if _, err := model.ParseCategory(c.Tab); err != nil {
			return ErrInvalidTab
		}
	}
	return nil
}

// ValidateAudit checks the settings of the audit command.
func (c *Config) ValidateAudit() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	formats := 0
	for _, enabled := range []bool{c.JSONReport, c.MarkdownReport, c.HTMLReport} {
		if enabled {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}
	return nil
}

// ForSite returns a copy of c with the overrides for host applied.
// Site headers are returned separately because they configure the transport.
func (c *Config) ForSite(host string) (*Config, map[string]string) {
	out := *c
	if c.SiteConfigs == nil {
		return &out, nil
	}

	site := c.SiteConfigs.GetSiteConfig(host)
	if site.Keyword != "" {
		out.Keyword = site.Keyword
	}
	if site.BrokenLinkSample != 0 {
		out.BrokenLinkSample = site.BrokenLinkSample
	}
	if site.Strategy != "" {
		out.Strategy = site.Strategy
	}
	return &out, site.Headers
}
