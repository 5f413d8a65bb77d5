// Package main provides the entry point for the seoaudit CLI.
//
// seoaudit audits a web page for search engine optimization: indexing and
// crawlability, on-page markup, backlink signals and user experience.
//
// Usage:
//
//	seoaudit audit <url>
//	seoaudit history <url>
//	seoaudit serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
