package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/seoaudit/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "seoaudit.db"

// startedAtFormat is a fixed-width UTC layout so started_at sorts as text.
const startedAtFormat = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB provides SQLite-based storage for audits.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run an audit with history enabled first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	// A busy timeout lets history reads wait for a running audit's writes.
	dsn := dbPath + "?mode=rw&_pragma=busy_timeout(5000)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the path of the database file.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		state TEXT NOT NULL,
		started_at TEXT NOT NULL,
		fingerprint TEXT,
		record_json TEXT NOT NULL,
		audit_json TEXT NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_audits_url ON audits(url);
	CREATE INDEX IF NOT EXISTS idx_audits_started ON audits(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAudit stores audit and returns its database ID. Saving the same run
// again replaces the stored copy.
func (hdb *HistoryDB) SaveAudit(ctx context.Context, audit *model.Audit) (int64, error) {
	if audit == nil {
		return 0, errors.New("audit is nil")
	}
	if !audit.State.Terminal() {
		return 0, fmt.Errorf("audit %s is still %s", audit.ID, audit.State)
	}

	auditJSON, err := json.Marshal(audit)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize audit: %w", err)
	}
	recordJSON, err := json.Marshal(audit.Record)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize record: %w", err)
	}

	query := `
	INSERT INTO audits (run_id, url, state, started_at, fingerprint, record_json, audit_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		state = excluded.state,
		fingerprint = excluded.fingerprint,
		record_json = excluded.record_json,
		audit_json = excluded.audit_json,
		saved_at = CURRENT_TIMESTAMP
	`

	if _, err := hdb.db.ExecContext(ctx, query,
		audit.ID,
		audit.Target.NormalizedURL,
		string(audit.State),
		audit.StartedAt.UTC().Format(startedAtFormat),
		audit.PageFingerprint,
		string(recordJSON),
		string(auditJSON),
	); err != nil {
		return 0, fmt.Errorf("failed to save audit: %w", err)
	}

	// LastInsertId is not reliable after an upsert that updated a row.
	var id int64
	if err := hdb.db.QueryRowContext(ctx, "SELECT id FROM audits WHERE run_id = ?", audit.ID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read audit id: %w", err)
	}
	return id, nil
}

// GetLatestAudits returns up to limit audits of url, newest first.
func (hdb *HistoryDB) GetLatestAudits(ctx context.Context, url string, limit int) ([]*model.Audit, error) {
	query := `
	SELECT audit_json FROM audits
	WHERE url = ?
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`
	return hdb.queryAudits(ctx, query, url, limit)
}

// GetCompletedAudits returns every completed audit of url, newest first.
// Only completed audits carry a full record, so comparisons use these.
func (hdb *HistoryDB) GetCompletedAudits(ctx context.Context, url string) ([]*model.Audit, error) {
	query := `
	SELECT audit_json FROM audits
	WHERE url = ? AND state = ?
	ORDER BY started_at DESC, id DESC
	`
	return hdb.queryAudits(ctx, query, url, string(model.StateCompleted))
}

func (hdb *HistoryDB) queryAudits(ctx context.Context, query string, args ...any) ([]*model.Audit, error) {
	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get audits: %w", err)
	}
	defer rows.Close()

	var audits []*model.Audit
	for rows.Next() {
		var auditJSON string
		if err := rows.Scan(&auditJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}

		var audit model.Audit
		if err := json.Unmarshal([]byte(auditJSON), &audit); err != nil {
			continue // Skip malformed rows
		}
		audits = append(audits, &audit)
	}

	return audits, rows.Err()
}

// GetLatestAudit returns the newest audit of url, or nil if there is none.
func (hdb *HistoryDB) GetLatestAudit(ctx context.Context, url string) (*model.Audit, error) {
	audits, err := hdb.GetLatestAudits(ctx, url, 1)
	if err != nil || len(audits) == 0 {
		return nil, err
	}
	return audits[0], nil
}

// ListTargets returns every audited URL in alphabetical order.
func (hdb *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, "SELECT DISTINCT url FROM audits ORDER BY url")
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, url)
	}

	return targets, rows.Err()
}

// AuditMetadata contains summary information about a stored audit.
// It is used for listing history without decoding every entry.
type AuditMetadata struct {
	// ID is the database ID of the row.
	ID int64

	// RunID is the audit's run ID.
	RunID string

	// URL is the normalized target URL.
	URL string

	// State is the final state of the run.
	State model.RunState

	// StartedAt is when the run started.
	StartedAt time.Time

	// Fingerprint is the page fingerprint, empty when no page was fetched.
	Fingerprint string

	// Record holds the exported fields of the run.
	Record []model.RecordField
}

// GetHistoryWithMetadata returns metadata of every audit of url, newest first.
// An empty url lists every target.
func (hdb *HistoryDB) GetHistoryWithMetadata(ctx context.Context, url string) ([]AuditMetadata, error) {
	query := `
	SELECT id, run_id, url, state, started_at, fingerprint, record_json
	FROM audits
	`
	args := make([]any, 0, 1)
	if url != "" {
		query += " WHERE url = ?"
		args = append(args, url)
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []AuditMetadata
	for rows.Next() {
		var meta AuditMetadata
		var state, startedAt string
		var fingerprint, recordJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.RunID, &meta.URL, &state, &startedAt, &fingerprint, &recordJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.State = model.RunState(state)
		meta.StartedAt = parseTimestamp(startedAt)
		meta.Fingerprint = fingerprint.String
		if recordJSON.Valid && recordJSON.String != "" {
			if err := json.Unmarshal([]byte(recordJSON.String), &meta.Record); err != nil {
				meta.Record = nil
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetAuditByID retrieves an audit by its database ID, or nil if there is none.
func (hdb *HistoryDB) GetAuditByID(ctx context.Context, id int64) (*model.Audit, error) {
	var auditJSON string
	err := hdb.db.QueryRowContext(ctx, "SELECT audit_json FROM audits WHERE id = ?", id).Scan(&auditJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	var audit model.Audit
	if err := json.Unmarshal([]byte(auditJSON), &audit); err != nil {
		return nil, fmt.Errorf("failed to parse audit: %w", err)
	}

	return &audit, nil
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	startedAtFormat,           // Written by SaveAudit
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
