package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/seoaudit/internal/provider"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".seoaudit"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads per-site overrides from a YAML file.
// A missing file yields ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}

	if err := validateStrategy(cf.Defaults.Strategy); err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	for host, site := range cf.Sites {
		if err := validateStrategy(site.Strategy); err != nil {
			return nil, fmt.Errorf("sites.%s: %w", host, err)
		}
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .seoaudit in the current directory
// 3. Look for .seoaudit in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 2)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadInto finds the configuration file for cfg and stores its overrides in
// cfg.SiteConfigs. A missing file is only an error when cfg.ConfigFilePath
// was set explicitly.
func LoadInto(cfg *Config) error {
	path := FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		return err
	}
	cfg.SiteConfigs = cf
	return nil
}

func validateStrategy(s string) error {
	if s == "" || s == provider.StrategyMobile || s == provider.StrategyDesktop {
		return nil
	}
	return ErrInvalidStrategy
}
