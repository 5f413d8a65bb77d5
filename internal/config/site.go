package config

import "maps"

// SiteConfig holds overrides for a single audited host.
type SiteConfig struct {
	// Keyword replaces the global density keyword for this site.
	Keyword string `yaml:"keyword,omitempty"`

	// Headers are custom HTTP headers sent with every outbound request
	// made while auditing this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// BrokenLinkSample overrides the number of anchors probed.
	// If zero, the global value is used.
	BrokenLinkSample int `yaml:"brokenLinkSample,omitempty"`

	// Strategy overrides the PageSpeed strategy.
	Strategy string `yaml:"strategy,omitempty"`
}

// File represents the structure of the .seoaudit configuration file.
type File struct {
	// Sites maps hosts (e.g. "example.com") to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host, merged over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if site.Keyword != "" {
		result.Keyword = site.Keyword
	}
	if site.BrokenLinkSample != 0 {
		result.BrokenLinkSample = site.BrokenLinkSample
	}
	if site.Strategy != "" {
		result.Strategy = site.Strategy
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}

// Pinned selects the SiteConfig fields fixed by the caller.
type Pinned struct {
	Keyword          bool
	BrokenLinkSample bool
	Strategy         bool
}

// Pin returns a copy of cf with the pinned fields removed from the defaults
// and every site, so values set on the command line are not overridden.
// Headers are never pinned.
func (cf *File) Pin(p Pinned) *File {
	out := &File{
		Defaults: pinSite(cf.Defaults, p),
		Sites:    make(map[string]SiteConfig, len(cf.Sites)),
	}
	for host, site := range cf.Sites {
		out.Sites[host] = pinSite(site, p)
	}
	return out
}

func pinSite(s SiteConfig, p Pinned) SiteConfig {
	if p.Keyword {
		s.Keyword = ""
	}
	if p.BrokenLinkSample {
		s.BrokenLinkSample = 0
	}
	if p.Strategy {
		s.Strategy = ""
	}
	return s
}
