// Package pipeline orchestrates SEO audit runs.
//
// A Pipeline runs the checks of a check.Registry category by category, with
// the checks of one category running concurrently. Results reach the
// Display as each check finishes, so a run that fails part way keeps what
// was already shown. Runner serializes runs against one Display and drops
// updates from superseded runs; BatchProcessor audits many URLs at once.
package pipeline
