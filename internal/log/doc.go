// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// Audits call third-party APIs with an API key in the query string and send
// per-site headers that may carry credentials. The SecureHandler keeps both
// out of log output:
//   - HTTP headers (Authorization, Cookie, X-Goog-Api-Key, ...)
//   - attributes whose key names a secret (api_key, token, password, ...)
//   - values that look like secrets (bearer tokens, JWTs, Google API keys)
//   - key=... and similar query parameters inside URLs and error messages
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching",
//	    "url", "https://www.googleapis.com/pagespeedonline/v5/runPagespeed?url=x&key=AIza...",
//	) // key=***REDACTED***
//	slog.SetDefault(logger)
package log
