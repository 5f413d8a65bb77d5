// Package config provides configuration structures and utilities for seoaudit.
// It defines the upstream endpoints, check tuning, report output and history
// storage options, plus the per-site YAML configuration file.
package config
