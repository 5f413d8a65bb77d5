// Package target turns user input into an audit target.
//
// Normalization is deliberately small: whitespace is trimmed, a missing
// scheme defaults to https, and the result must parse as an absolute URL
// with a host. Everything else about the URL, including its path and query,
// is passed through unchanged so that search queries see what the user typed.
package target
