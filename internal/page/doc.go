// Package page wraps a fetched HTML page for the on-page checks.
//
// A Document is parsed once and queried many times: title and meta tags,
// heading and image counts, outbound links and the visible text. Text
// helpers (Tokenize, Truncate, KeywordDensity) live here as well so that
// the checks only format results.
package page
