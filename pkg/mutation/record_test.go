package mutation

import (
	"slices"
	"strings"
	"testing"
)

func TestRecord_WritesExtraKeys(t *testing.T) {
	cfg := &Config{Enabled: true, Record: true, User: "test <test@example.com>", Date: "1700000000 -480"}
	extra := map[string]string{
		"branch": "default",
		ExtraOp:  "stale",
	}

	rec := Record(cfg, extra, []Node{"1f2e3d", "4c5b6a"}, "fold", nil)
	if rec == nil {
		t.Fatal("Record returned nil with mutation enabled")
	}

	want := map[string]string{
		"branch":  "default",
		ExtraPred: "hg/1f2e3d,hg/4c5b6a",
		ExtraUser: "test <test@example.com>",
		ExtraDate: "1700000000 -480",
		ExtraOp:   "fold",
	}
	for k, v := range want {
		if extra[k] != v {
			t.Errorf("extra[%q] = %q, want %q", k, extra[k], v)
		}
	}
	if _, ok := extra[ExtraSplit]; ok {
		t.Errorf("extra[%q] present without a split", ExtraSplit)
	}
	if len(extra) != len(want) {
		t.Errorf("extra = %v, want exactly %v", extra, want)
	}
}

func TestRecord_Split(t *testing.T) {
	cfg := &Config{Enabled: true, Record: true, Date: "1700000000 0"}
	extra := map[string]string{}

	Record(cfg, extra, []Node{"aa"}, "split", []Node{"s1", "s2"})
	if got, want := extra[ExtraSplit], "hg/s1,hg/s2"; got != want {
		t.Errorf("extra[%q] = %q, want %q", ExtraSplit, got, want)
	}
	if got, want := extra[ExtraUser], "unknown"; got != want {
		t.Errorf("extra[%q] = %q, want %q", ExtraUser, got, want)
	}
}

func TestRecord_Disabled(t *testing.T) {
	extra := map[string]string{ExtraPred: "hg/aa", "branch": "default"}
	rec := Record(&Config{}, extra, []Node{"bb"}, "amend", nil)
	if rec != nil {
		t.Fatalf("Record = %v with mutation disabled, want nil", rec)
	}
	// Stale mutation keys are scrubbed even when disabled.
	if _, ok := extra[ExtraPred]; ok {
		t.Errorf("stale %q key survived", ExtraPred)
	}
	if extra["branch"] != "default" {
		t.Error("unrelated extra key was dropped")
	}
}

func TestRecord_TrackWithoutPersist(t *testing.T) {
	cfg := &Config{Enabled: true, Record: false, Date: "1700000000 0"}
	extra := map[string]string{}

	rec := Record(cfg, extra, []Node{"aa"}, "amend", nil)
	if rec == nil || rec[ExtraPred] != "hg/aa" {
		t.Fatalf("rec = %v, want computed metadata", rec)
	}
	if len(extra) != 0 {
		t.Errorf("extra = %v, must stay empty when recording is off", extra)
	}
}

func TestParseIdentifier(t *testing.T) {
	node, err := ParseIdentifier("hg/1f2e3d")
	if err != nil {
		t.Fatalf("ParseIdentifier: %v", err)
	}
	if node != "1f2e3d" {
		t.Errorf("node = %q, want %q", node, "1f2e3d")
	}

	_, err = ParseIdentifier("git/1f2e3d")
	if err == nil {
		t.Fatal("ParseIdentifier accepted a foreign identifier")
	}
	if !strings.Contains(err.Error(), "malformed mutation identifier") {
		t.Errorf("error = %q, want malformed identifier message", err)
	}
}

func TestEntryFromExtra_RoundTrip(t *testing.T) {
	cfg := &Config{Enabled: true, Record: true, User: "test", Date: "1700000000 -480"}
	extra := map[string]string{}
	Record(cfg, extra, []Node{"p1", "p2"}, "fold", []Node{"c1", "c2"})

	entry, err := EntryFromExtra("c1", extra)
	if err != nil {
		t.Fatalf("EntryFromExtra: %v", err)
	}
	if entry == nil {
		t.Fatal("EntryFromExtra = nil for a commit with mutation keys")
	}
	if entry.Succ != "c1" {
		t.Errorf("Succ = %q, want c1", entry.Succ)
	}
	if !slices.Equal(entry.Preds, []Node{"p1", "p2"}) {
		t.Errorf("Preds = %v, want [p1 p2]", entry.Preds)
	}
	if !slices.Equal(entry.Split, []Node{"c1", "c2"}) {
		t.Errorf("Split = %v, want [c1 c2]", entry.Split)
	}
	if entry.Op != "fold" || entry.User != "test" {
		t.Errorf("Op/User = %q/%q, want fold/test", entry.Op, entry.User)
	}
	if entry.Time != 1700000000 || entry.Tz != -480 {
		t.Errorf("Time/Tz = %d/%d, want 1700000000/-480", entry.Time, entry.Tz)
	}
}

func TestEntryFromExtra_NoMutationKeys(t *testing.T) {
	entry, err := EntryFromExtra("aa", map[string]string{"branch": "default"})
	if err != nil {
		t.Fatalf("EntryFromExtra: %v", err)
	}
	if entry != nil {
		t.Fatalf("EntryFromExtra = %+v for a plain commit, want nil", entry)
	}
}

func TestEntryFromExtra_Malformed(t *testing.T) {
	_, err := EntryFromExtra("aa", map[string]string{ExtraPred: "bogus"})
	if err == nil {
		t.Fatal("EntryFromExtra accepted a malformed predecessor list")
	}
}

func TestRecordEntries_SkipExisting(t *testing.T) {
	store := newTestStore(amend("b", "a"))
	entries := []*Entry{amend("b", "a"), amend("c", "b")}

	count, err := RecordEntries(store, entries, true)
	if err != nil {
		t.Fatalf("RecordEntries: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	// A second pass over the same batch is a no-op.
	count, err = RecordEntries(store, entries, true)
	if err != nil {
		t.Fatalf("RecordEntries: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d on replay, want 0", count)
	}
}

func TestEntriesForNodes_CollectsHistory(t *testing.T) {
	store := newTestStore(amend("b", "a"), amend("c", "b"), amend("z", "y"))

	entries, err := EntriesForNodes(store, []Node{"c"})
	if err != nil {
		t.Fatalf("EntriesForNodes: %v", err)
	}
	got := make([]Node, len(entries))
	for i, e := range entries {
		got[i] = e.Succ
	}
	if !slices.Equal(got, []Node{"b", "c"}) {
		t.Errorf("entries = %v, want [b c]", got)
	}
}

// Recording an amend through config, reading it back off the commit extras,
// and storing it must make the predecessor obsolete with the expected
// resolution and fate.
func TestRecordedAmend_EndToEnd(t *testing.T) {
	cfg := &Config{Enabled: true, Record: true, User: "test", Date: "1700000000 0"}
	extra := map[string]string{}
	Record(cfg, extra, []Node{"a"}, "amend", nil)

	entry, err := EntryFromExtra("a1", extra)
	if err != nil {
		t.Fatalf("EntryFromExtra: %v", err)
	}
	store := newTestStore()
	if _, err := RecordEntries(store, []*Entry{entry}, false); err != nil {
		t.Fatalf("RecordEntries: %v", err)
	}

	view := NewView(newTestChangelog().drafts("a", "a1"), false)
	obsolete, err := view.Obsolete().IsObsolete(store, view, "a")
	if err != nil {
		t.Fatalf("IsObsolete: %v", err)
	}
	if !obsolete {
		t.Fatal("a not obsolete after recorded amend")
	}

	sets, err := SuccessorsSets(store, view, "a", true)
	if err != nil {
		t.Fatalf("SuccessorsSets: %v", err)
	}
	if len(sets) != 1 || !slices.Equal(sets[0], []Node{"a1"}) {
		t.Errorf("SuccessorsSets(a) = %v, want [[a1]]", sets)
	}

	fates, err := Fate(store, view, "a")
	if err != nil {
		t.Fatalf("Fate: %v", err)
	}
	if len(fates) != 1 || fates[0].Op != "amend" || !slices.Equal(fates[0].Successors, []Node{"a1"}) {
		t.Errorf("Fate(a) = %+v, want one amend fate to a1", fates)
	}
}
