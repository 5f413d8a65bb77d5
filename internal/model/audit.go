package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// RecordKeyURL is the first key of every AuditRecord.
const RecordKeyURL = "url"

// AuditTarget is the URL an audit runs against.
// It is created once per run from user input and never modified afterwards.
type AuditTarget struct {
	// RawInput is the trimmed text the user entered.
	RawInput string `json:"raw_input"`

	// NormalizedURL is the absolute URL with a scheme.
	NormalizedURL string `json:"normalized_url"`
}

// ResultEntry is one labeled value produced by a check.
type ResultEntry struct {
	// Category selects the display surface the entry is rendered on.
	Category Category `json:"category"`

	// Label is the metric name shown to the user, e.g. "Indexed Pages".
	Label string `json:"label"`

	// Value is the display value, e.g. "~1,230" or "87/100".
	Value string `json:"value"`

	// RecordKey names the AuditRecord key this entry is persisted under.
	// Entries without a RecordKey are rendered but not exported.
	RecordKey string `json:"record_key,omitempty"`

	// RecordValue is the value written to the AuditRecord.
	// When empty, Value is used.
	RecordValue string `json:"record_value,omitempty"`
}

// NewEntry creates a display-only ResultEntry.
// value is formatted with fmt.Sprint so numbers can be passed directly.
func NewEntry(category Category, label string, value any) ResultEntry {
	return ResultEntry{
		Category: category,
		Label:    label,
		Value:    fmt.Sprint(value),
	}
}

// Recorded returns a copy of e that is persisted to the AuditRecord under key.
func (e ResultEntry) Recorded(key string, value any) ResultEntry {
	e.RecordKey = key
	e.RecordValue = fmt.Sprint(value)
	return e
}

// recordValue returns the value stored in the AuditRecord.
func (e ResultEntry) recordValue() string {
	if e.RecordValue != "" {
		return e.RecordValue
	}
	return e.Value
}

// RecordField is one key/value pair of an AuditRecord.
type RecordField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AuditRecord is an insertion-ordered key/value mapping of the metrics kept
// for export. Setting an existing key replaces its value in place.
// It is safe for concurrent use.
type AuditRecord struct {
	mu     sync.RWMutex
	fields []RecordField
	index  map[string]int
}

// NewAuditRecord creates an empty AuditRecord.
func NewAuditRecord() *AuditRecord {
	return &AuditRecord{index: make(map[string]int)}
}

// Set stores value under key.
func (r *AuditRecord) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, RecordField{Key: key, Value: value})
}

// Get returns the value stored under key.
func (r *AuditRecord) Get(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[key]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Fields returns a copy of all fields in insertion order.
func (r *AuditRecord) Fields() []RecordField {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RecordField, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r *AuditRecord) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fields)
}

// MarshalJSON encodes the record as an ordered array of fields.
func (r *AuditRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}

// UnmarshalJSON decodes an ordered array of fields.
func (r *AuditRecord) UnmarshalJSON(data []byte) error {
	var fields []RecordField
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	r.mu.Lock()
	r.fields = nil
	r.index = make(map[string]int, len(fields))
	r.mu.Unlock()
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return nil
}

// RunState is the lifecycle state of an Audit.
type RunState string

// Audit lifecycle states.
const (
	// StateIdle means the audit has been created but not started.
	StateIdle RunState = "idle"
	// StateRunning means checks are in flight.
	StateRunning RunState = "running"
	// StateCompleted means every check finished without error.
	StateCompleted RunState = "completed"
	// StateFailed means a check failed and the run was aborted.
	StateFailed RunState = "failed"
	// StateCancelled means the run was cancelled or superseded by a newer run.
	StateCancelled RunState = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Audit is the result of a single run against one target.
// A fresh Audit is created for every run; nothing carries over between runs.
type Audit struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// Target is the audited URL.
	Target AuditTarget `json:"target"`

	// State is the current lifecycle state.
	State RunState `json:"state"`

	// Entries holds every ResultEntry in the order it was produced.
	Entries []ResultEntry `json:"entries"`

	// Record holds the values persisted for export.
	Record *AuditRecord `json:"record"`

	// Error is the consolidated failure message of a failed run.
	Error string `json:"error,omitempty"`

	// PageFingerprint is a hash of the fetched page body, if one was fetched.
	PageFingerprint string `json:"page_fingerprint,omitempty"`

	// StartedAt is when the run entered StateRunning.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run reached a terminal state.
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// NewAudit creates an idle Audit whose record starts with the target URL.
func NewAudit(id string, target AuditTarget) *Audit {
	record := NewAuditRecord()
	record.Set(RecordKeyURL, target.NormalizedURL)

	return &Audit{
		ID:      id,
		Target:  target,
		State:   StateIdle,
		Entries: make([]ResultEntry, 0),
		Record:  record,
	}
}

// Append adds an entry to the audit and, when the entry carries a RecordKey,
// to the AuditRecord. Entries with an unknown category are rejected.
// Append is not safe for concurrent use; callers serialize access.
func (a *Audit) Append(e ResultEntry) error {
	if !e.Category.Valid() {
		return fmt.Errorf("result entry %q has unknown category %q", e.Label, e.Category)
	}
	a.Entries = append(a.Entries, e)
	if e.RecordKey != "" {
		a.Record.Set(e.RecordKey, e.recordValue())
	}
	return nil
}

// EntriesFor returns the entries of one category in insertion order.
func (a *Audit) EntriesFor(c Category) []ResultEntry {
	out := make([]ResultEntry, 0)
	for _, e := range a.Entries {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// Exportable reports whether the audit may be exported.
// Only completed runs are exportable.
func (a *Audit) Exportable() bool {
	return a.State == StateCompleted
}

// Duration returns how long the run took, or zero if it has not finished.
func (a *Audit) Duration() time.Duration {
	if a.FinishedAt.IsZero() || a.StartedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}
