// Package provider wraps the third-party services an audit queries:
// search result scraping for indexed page and backlink counts, PageSpeed
// Insights and the Mobile-Friendly Test.
//
// Clients translate provider responses into plain values and report
// structurally valid responses that lack an expected field as
// *model.ProviderDataError.
package provider
