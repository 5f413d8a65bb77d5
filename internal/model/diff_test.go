package model

import "testing"

// TestCompare tests diffing two audit records.
func TestCompare(t *testing.T) {
	t.Parallel()

	previous := newTestAudit()
	previous.ID = "old"
	previous.PageFingerprint = "aaa"
	previous.Record.Set("indexed", "1,200")
	previous.Record.Set("legacy", "x")

	current := newTestAudit()
	current.ID = "new"
	current.PageFingerprint = "bbb"
	current.Record.Set("indexed", "1,350")
	current.Record.Set("speed", "91")

	diff := Compare(previous, current)

	if !diff.PageChanged {
		t.Error("expected page change")
	}

	want := []FieldChange{
		{Key: "url", Previous: "https://example.com", Current: "https://example.com", Change: ChangeUnchanged},
		{Key: "indexed", Previous: "1,200", Current: "1,350", Change: ChangeModified},
		{Key: "speed", Current: "91", Change: ChangeAdded},
		{Key: "legacy", Previous: "x", Change: ChangeRemoved},
	}
	if len(diff.Fields) != len(want) {
		t.Fatalf("got %d fields, expected %d: %+v", len(diff.Fields), len(want), diff.Fields)
	}
	for i := range want {
		if diff.Fields[i] != want[i] {
			t.Errorf("field %d: got %+v, expected %+v", i, diff.Fields[i], want[i])
		}
	}

	if got := len(diff.Changed()); got != 3 {
		t.Errorf("expected 3 changed fields, got %d", got)
	}
}

// TestCompareWithoutFingerprint tests that a missing fingerprint is not a change.
func TestCompareWithoutFingerprint(t *testing.T) {
	t.Parallel()

	previous := newTestAudit()
	current := newTestAudit()
	current.PageFingerprint = "bbb"

	if Compare(previous, current).PageChanged {
		t.Error("missing fingerprint must not count as a page change")
	}
}
