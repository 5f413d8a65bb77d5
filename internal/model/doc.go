// Package model defines the core data structures used throughout seoaudit.
//
// This package contains the following main types:
//   - AuditTarget: The normalized URL a run is performed against
//   - ResultEntry: One labeled value produced by a check
//   - AuditRecord: The insertion-ordered subset of values kept for export
//   - Audit: A single run, its state, entries and record
//
// It also defines the error taxonomy shared by the fetch, provider, check and
// pipeline packages (InputError, NetworkError, ParseError, ProviderDataError).
//
// Models live in their own package because the check, pipeline, report and
// database packages all depend on them.
package model
