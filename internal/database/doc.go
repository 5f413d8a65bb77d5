// Package database provides SQLite-based storage for audit history.
//
// Every completed, failed or cancelled audit can be saved as one row that
// keeps the full audit as JSON next to a few columns used for listing:
//   - the normalized target URL
//   - the run ID and final state
//   - the start time and page fingerprint
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the
// history is a single local file, the driver is CGO-free, and WAL mode
// lets `seoaudit history` read while an audit is writing.
package database
