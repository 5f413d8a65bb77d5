package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
)

// TestNetworkErrorRetryable tests which network errors are retried.
func TestNetworkErrorRetryable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      *NetworkError
		expected bool
	}{
		{"transport failure", &NetworkError{Err: io.ErrUnexpectedEOF}, true},
		{"cancelled", &NetworkError{Err: context.Canceled}, false},
		{"deadline", &NetworkError{Err: fmt.Errorf("get: %w", context.DeadlineExceeded)}, false},
		{"too many requests", &NetworkError{StatusCode: http.StatusTooManyRequests}, true},
		{"bad gateway", &NetworkError{StatusCode: http.StatusBadGateway}, true},
		{"not found", &NetworkError{StatusCode: http.StatusNotFound}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.err.Retryable(); got != tc.expected {
				t.Errorf("Retryable() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestErrorsAs tests that wrapped typed errors can be recovered.
func TestErrorsAs(t *testing.T) {
	t.Parallel()

	t.Run("parse error wraps missing contents", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("check sitemap: %w", &ParseError{Source: "proxy envelope", Err: ErrMissingContents})

		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatal("expected ParseError")
		}
		if !errors.Is(err, ErrMissingContents) {
			t.Error("expected ErrMissingContents in chain")
		}
	})

	t.Run("network error status message", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("fetch: %w", &NetworkError{URL: "https://example.com", StatusCode: 503})

		var ne *NetworkError
		if !errors.As(err, &ne) {
			t.Fatal("expected NetworkError")
		}
		if ne.StatusCode != 503 {
			t.Errorf("got status %d, expected 503", ne.StatusCode)
		}
		if ne.Error() != "network error: unexpected status 503 Service Unavailable" {
			t.Errorf("unexpected message %q", ne.Error())
		}
	})

	t.Run("input error message", func(t *testing.T) {
		t.Parallel()
		err := &InputError{Reason: "URL is empty"}
		if err.Error() != "invalid input: URL is empty" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("provider data error message", func(t *testing.T) {
		t.Parallel()
		err := &ProviderDataError{Provider: "pagespeed", Field: "lighthouseResult.categories.performance"}
		want := "pagespeed response is missing lighthouseResult.categories.performance"
		if err.Error() != want {
			t.Errorf("got %q, expected %q", err.Error(), want)
		}
	})
}
