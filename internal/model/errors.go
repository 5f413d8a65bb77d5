package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// InputError is returned when the audit target is empty or not a usable URL.
// It is raised before any network activity.
type InputError struct {
	// Input is the text the user entered.
	Input string

	// Reason describes what is wrong with the input.
	Reason string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Input == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// NetworkError is returned on transport failures and non-2xx responses from
// the proxy or any provider.
type NetworkError struct {
	// URL is the requested URL. Query strings may contain API keys, so callers
	// log it through the secure logger only.
	URL string

	// StatusCode is the HTTP status, or zero for transport failures.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("network error: unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the request may succeed.
// Transport errors, 429 and 5xx responses are retryable; context
// cancellation is not.
func (e *NetworkError) Retryable() bool {
	if e.Err != nil {
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// ParseError is returned when a response body is malformed JSON or lacks a
// field the envelope format requires.
type ParseError struct {
	// Source identifies what was being decoded, e.g. "proxy envelope".
	Source string

	// Err is the underlying decode error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ProviderDataError is returned when a well-formed provider response lacks
// an expected field, e.g. a PageSpeed result without a performance category.
type ProviderDataError struct {
	// Provider names the external service.
	Provider string

	// Field is the missing field path.
	Field string
}

// Error implements the error interface.
func (e *ProviderDataError) Error() string {
	return fmt.Sprintf("%s response is missing %s", e.Provider, e.Field)
}

// ErrMissingContents is wrapped by ParseError when a proxy envelope has no
// contents field.
var ErrMissingContents = errors.New("contents field is absent")
