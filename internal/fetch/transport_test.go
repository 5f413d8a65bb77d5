package fetch

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestIsValidProxyAddress tests SOCKS5 address validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		address  string
		expected bool
	}{
		{"127.0.0.1:9050", true},
		{"localhost:1080", true},
		{"[::1]:9050", true},
		{"127.0.0.1", false},
		{":9050", false},
		{"host:0", false},
		{"host:70000", false},
		{"host:abc", false},
	}

	for _, tc := range testCases {
		t.Run(tc.address, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tc.address); got != tc.expected {
				t.Errorf("isValidProxyAddress(%q) = %v, expected %v", tc.address, got, tc.expected)
			}
		})
	}
}

// TestNewHTTPClient tests client construction.
func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid socks address", func(t *testing.T) {
		t.Parallel()
		_, err := NewHTTPClient(TransportConfig{SOCKSAddress: "nope"})
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("accepts socks address", func(t *testing.T) {
		t.Parallel()
		c, err := NewHTTPClient(TransportConfig{SOCKSAddress: "127.0.0.1:9050", Timeout: time.Second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Timeout != time.Second {
			t.Errorf("got timeout %v", c.Timeout)
		}
	})

	t.Run("injects headers", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Audit") != "yes" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c, err := NewHTTPClient(TransportConfig{Headers: map[string]string{"X-Audit": "yes"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp, err := c.Get(srv.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("header was not injected, got status %d", resp.StatusCode)
		}
	})
}
