package target

import (
	"net/url"
	"strings"

	"github.com/nao1215/seoaudit/internal/model"
)

// defaultScheme is prepended to input that has no http or https scheme.
const defaultScheme = "https://"

// Normalize converts raw user input into an AuditTarget.
//
// The input is trimmed. Input that already starts with "http://" or
// "https://" (in any letter case) is kept as is; anything else gets
// "https://" prepended. Empty input and URLs without a host are rejected
// with a *model.InputError before any network activity takes place.
func Normalize(raw string) (model.AuditTarget, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.AuditTarget{}, &model.InputError{Input: raw, Reason: "URL is empty"}
	}

	normalized := trimmed
	if !hasHTTPScheme(trimmed) {
		normalized = defaultScheme + trimmed
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return model.AuditTarget{}, &model.InputError{Input: trimmed, Reason: "not a valid URL"}
	}
	if u.Hostname() == "" {
		return model.AuditTarget{}, &model.InputError{Input: trimmed, Reason: "URL has no host"}
	}
	if strings.ContainsAny(u.Hostname(), " \t") {
		return model.AuditTarget{}, &model.InputError{Input: trimmed, Reason: "host contains whitespace"}
	}

	return model.AuditTarget{
		RawInput:      trimmed,
		NormalizedURL: normalized,
	}, nil
}

// hasHTTPScheme reports whether s starts with http:// or https://.
func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Origin returns scheme://host[:port] of the target.
func Origin(t model.AuditTarget) string {
	u, err := url.Parse(t.NormalizedURL)
	if err != nil || u.Host == "" {
		return strings.TrimRight(t.NormalizedURL, "/")
	}
	return strings.ToLower(u.Scheme) + "://" + u.Host
}

// Resolve joins the target origin with an absolute path such as
// "/robots.txt".
func Resolve(t model.AuditTarget, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Origin(t) + path
}

// IsHTTPS reports whether the normalized URL uses TLS.
func IsHTTPS(t model.AuditTarget) bool {
	return strings.HasPrefix(strings.ToLower(t.NormalizedURL), "https://")
}
