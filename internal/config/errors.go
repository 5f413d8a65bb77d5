package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.ValidateAudit. Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when an audit is requested without any URL.
	ErrNoTarget = errors.New("no target specified: provide at least one URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when more than one of
	// --json, --markdown and --html is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: only one of --json, --markdown and --html can be used")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRetryAttempts is returned when fewer than one attempt is configured.
	ErrInvalidRetryAttempts = errors.New("invalid retry attempts: must be at least 1")

	// ErrInvalidStrategy is returned for a PageSpeed strategy other than mobile or desktop.
	ErrInvalidStrategy = errors.New("invalid strategy: must be mobile or desktop")

	// ErrEmptyKeyword is returned when the density keyword is blank.
	ErrEmptyKeyword = errors.New("invalid keyword: must not be empty")

	// ErrInvalidBrokenLinkSample is returned when the broken link sample is negative.
	ErrInvalidBrokenLinkSample = errors.New("invalid broken link sample: must be non-negative")

	// ErrInvalidTab is returned when the initial tab is not a report category.
	ErrInvalidTab = errors.New("invalid tab: must be one of technical, onpage, offpage, ux")
)
