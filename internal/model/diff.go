package model

import "time"

// Change direction values used by RecordDiff.
const (
	ChangeAdded     = "added"
	ChangeRemoved   = "removed"
	ChangeModified  = "modified"
	ChangeUnchanged = "unchanged"
)

// FieldChange describes how one AuditRecord key differs between two audits.
type FieldChange struct {
	// Key is the record key.
	Key string `json:"key"`

	// Previous is the value in the older audit, empty when the key was added.
	Previous string `json:"previous,omitempty"`

	// Current is the value in the newer audit, empty when the key was removed.
	Current string `json:"current,omitempty"`

	// Change is one of ChangeAdded, ChangeRemoved, ChangeModified or ChangeUnchanged.
	Change string `json:"change"`
}

// RecordDiff is the result of comparing two audits of the same target.
type RecordDiff struct {
	// URL is the normalized target URL of the newer audit.
	URL string `json:"url"`

	// PreviousID and CurrentID identify the compared runs.
	PreviousID string `json:"previous_id"`
	CurrentID  string `json:"current_id"`

	// PreviousAt and CurrentAt are the start times of the compared runs.
	PreviousAt time.Time `json:"previous_at"`
	CurrentAt  time.Time `json:"current_at"`

	// PageChanged reports whether the fetched page body differs.
	// It is false when either run has no fingerprint.
	PageChanged bool `json:"page_changed"`

	// Fields lists every key of either record. Keys of the newer record come
	// first in its order, followed by removed keys in the older record's order.
	Fields []FieldChange `json:"fields"`
}

// Changed returns the fields whose change is not ChangeUnchanged.
func (d *RecordDiff) Changed() []FieldChange {
	out := make([]FieldChange, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.Change != ChangeUnchanged {
			out = append(out, f)
		}
	}
	return out
}

// Compare diffs the records of two audits.
func Compare(previous, current *Audit) *RecordDiff {
	diff := &RecordDiff{
		URL:        current.Target.NormalizedURL,
		PreviousID: previous.ID,
		CurrentID:  current.ID,
		PreviousAt: previous.StartedAt,
		CurrentAt:  current.StartedAt,
		PageChanged: previous.PageFingerprint != "" && current.PageFingerprint != "" &&
			previous.PageFingerprint != current.PageFingerprint,
	}

	prev := recordOf(previous)
	curr := recordOf(current)

	for _, f := range curr.Fields() {
		old, ok := prev.Get(f.Key)
		change := FieldChange{Key: f.Key, Current: f.Value}
		switch {
		case !ok:
			change.Change = ChangeAdded
		case old == f.Value:
			change.Previous = old
			change.Change = ChangeUnchanged
		default:
			change.Previous = old
			change.Change = ChangeModified
		}
		diff.Fields = append(diff.Fields, change)
	}
	for _, f := range prev.Fields() {
		if _, ok := curr.Get(f.Key); !ok {
			diff.Fields = append(diff.Fields, FieldChange{Key: f.Key, Previous: f.Value, Change: ChangeRemoved})
		}
	}
	return diff
}

func recordOf(a *Audit) *AuditRecord {
	if a.Record == nil {
		return NewAuditRecord()
	}
	return a.Record
}
