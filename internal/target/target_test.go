package target

import (
	"errors"
	"testing"

	"github.com/nao1215/seoaudit/internal/model"
)

// TestNormalize tests normalization of user input.
func TestNormalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare domain gets https", "example.com", "https://example.com"},
		{"http is unchanged", "http://example.com", "http://example.com"},
		{"https is unchanged", "https://example.com/path?q=1", "https://example.com/path?q=1"},
		{"uppercase scheme is kept", "HTTPS://Example.com", "HTTPS://Example.com"},
		{"whitespace is trimmed", "  example.com/blog \n", "https://example.com/blog"},
		{"domain starting with http gets a scheme", "httpbin.org", "https://httpbin.org"},
		{"host with port", "localhost:8080", "https://localhost:8080"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tc.input)
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tc.input, err)
			}
			if got.NormalizedURL != tc.expected {
				t.Errorf("Normalize(%q) = %q, expected %q", tc.input, got.NormalizedURL, tc.expected)
			}
		})
	}
}

// TestNormalizeKeepsRawInput tests that the trimmed input is preserved.
func TestNormalizeKeepsRawInput(t *testing.T) {
	t.Parallel()

	got, err := Normalize("  example.com ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RawInput != "example.com" {
		t.Errorf("got RawInput %q, expected %q", got.RawInput, "example.com")
	}
}

// TestNormalizeRejects tests that unusable input is an InputError.
func TestNormalizeRejects(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   \t\n"},
		{"scheme only", "https://"},
		{"no host", "http:///path"},
		{"space in host", "exa mple.com"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Normalize(tc.input)
			var inputErr *model.InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("Normalize(%q) error = %v, expected *model.InputError", tc.input, err)
			}
		})
	}
}

// TestResolve tests joining the origin with a root path.
func TestResolve(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		url      string
		path     string
		expected string
	}{
		{"root", "https://example.com", "/sitemap.xml", "https://example.com/sitemap.xml"},
		{"deep path is dropped", "https://example.com/blog/post?x=1", "/robots.txt", "https://example.com/robots.txt"},
		{"port is kept", "http://localhost:8080/", "robots.txt", "http://localhost:8080/robots.txt"},
		{"scheme is lowered", "HTTPS://example.com", "/sitemap.xml", "https://example.com/sitemap.xml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(model.AuditTarget{NormalizedURL: tc.url}, tc.path)
			if got != tc.expected {
				t.Errorf("Resolve(%q, %q) = %q, expected %q", tc.url, tc.path, got, tc.expected)
			}
		})
	}
}

// TestIsHTTPS tests scheme detection.
func TestIsHTTPS(t *testing.T) {
	t.Parallel()

	if !IsHTTPS(model.AuditTarget{NormalizedURL: "https://example.com"}) {
		t.Error("expected https target to report true")
	}
	if IsHTTPS(model.AuditTarget{NormalizedURL: "http://example.com"}) {
		t.Error("expected http target to report false")
	}
}
