package mutation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Commit extra metadata keys written and read by mutation recording. These
// exact names, and the "hg/<hex>" identifier scheme, are a durable on-commit
// wire contract shared with existing commits; they must never change.
const (
	ExtraPred  = "mutpred"
	ExtraUser  = "mutuser"
	ExtraDate  = "mutdate"
	ExtraOp    = "mutop"
	ExtraSplit = "mutsplit"
)

const identifierPrefix = "hg/"

var extraKeys = []string{ExtraPred, ExtraUser, ExtraDate, ExtraOp, ExtraSplit}

// Config controls mutation behaviour. Enabled drives obsolescence semantics;
// Record drives whether metadata is persisted into new commits. The two are
// distinct: a repository can honor existing mutation records without writing
// new ones.
type Config struct {
	Enabled bool   `toml:"enabled"`
	Record  bool   `toml:"record"`
	User    string `toml:"user"`
	Date    string `toml:"date"` // "<unixtime> <tzoffset>" override, mainly for tests
}

// FormatIdentifier renders a node as a mutation identifier.
func FormatIdentifier(node Node) string {
	return identifierPrefix + string(node)
}

// ParseIdentifier parses a mutation identifier. An identifier that does not
// carry the expected prefix indicates corrupted mutation data.
func ParseIdentifier(id string) (Node, error) {
	if !strings.HasPrefix(id, identifierPrefix) {
		return "", fmt.Errorf("malformed mutation identifier: %q", id)
	}
	return Node(id[len(identifierPrefix):]), nil
}

func formatIdentifierList(nodes []Node) string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = FormatIdentifier(n)
	}
	return strings.Join(ids, ",")
}

func parseIdentifierList(s string) ([]Node, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	nodes := make([]Node, 0, len(parts))
	for _, part := range parts {
		node, err := ParseIdentifier(part)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Record computes the mutation metadata for a new commit created as a rewrite
// of preds. Any stale mutation keys are removed from extra first. The result
// is nil when mutation tracking is disabled; when recording is enabled the
// computed fields are also merged into extra in place.
func Record(cfg *Config, extra map[string]string, preds []Node, op string, splitting []Node) map[string]string {
	for _, key := range extraKeys {
		delete(extra, key)
	}
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	t, tz := cfg.now()
	rec := map[string]string{
		ExtraPred: formatIdentifierList(preds),
		ExtraUser: cfg.user(),
		ExtraDate: fmt.Sprintf("%d %d", t, tz),
	}
	if op != "" {
		rec[ExtraOp] = op
	}
	if len(splitting) > 0 {
		rec[ExtraSplit] = formatIdentifierList(splitting)
	}

	if cfg.Record {
		for k, v := range rec {
			extra[k] = v
		}
	}
	return rec
}

// CreateEntry builds a synthetic mutation entry for a rewrite performed by
// tooling rather than read back from a commit.
func CreateEntry(cfg *Config, succ Node, preds []Node, op string, splitting []Node) *Entry {
	t, tz := cfg.now()
	return &Entry{
		Succ:  succ,
		Preds: slices.Clone(preds),
		Split: slices.Clone(splitting),
		Op:    op,
		User:  cfg.user(),
		Time:  t,
		Tz:    tz,
	}
}

// EntryFromExtra synthesizes the mutation entry described by a commit's extra
// metadata. A commit carrying no mutation keys yields nil, nil.
func EntryFromExtra(succ Node, extra map[string]string) (*Entry, error) {
	predStr, ok := extra[ExtraPred]
	if !ok {
		return nil, nil
	}
	preds, err := parseIdentifierList(predStr)
	if err != nil {
		return nil, err
	}
	split, err := parseIdentifierList(extra[ExtraSplit])
	if err != nil {
		return nil, err
	}

	var t int64
	var tz int
	if date := extra[ExtraDate]; date != "" {
		tStr, tzStr, _ := strings.Cut(date, " ")
		t, err = strconv.ParseInt(tStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed mutation date: %q", date)
		}
		if tzStr != "" {
			tz, err = strconv.Atoi(tzStr)
			if err != nil {
				return nil, fmt.Errorf("malformed mutation date: %q", date)
			}
		}
	}

	return &Entry{
		Succ:  succ,
		Preds: preds,
		Split: split,
		Op:    extra[ExtraOp],
		User:  extra[ExtraUser],
		Time:  t,
		Tz:    tz,
	}, nil
}

// RecordEntries writes entries to the store and flushes once at the end.
// With skipExisting set an entry whose successor is already recorded is left
// alone, making repeated unbundles idempotent. Callers own transaction
// scoping around the batch; a write failure aborts the whole batch with it.
func RecordEntries(store Store, entries []*Entry, skipExisting bool) (int, error) {
	count := 0
	for _, entry := range entries {
		if skipExisting {
			ok, err := store.Has(entry.Succ)
			if err != nil {
				return count, err
			}
			if ok {
				continue
			}
		}
		if err := store.Add(entry); err != nil {
			return count, fmt.Errorf("record mutation entry %s: %w", entry.Succ, err)
		}
		count++
	}
	if err := store.Flush(); err != nil {
		return count, fmt.Errorf("flush mutation store: %w", err)
	}
	return count, nil
}

// EntriesForNodes collects every mutation entry reachable from nodes through
// predecessor edges, so a bundle can carry exactly the mutation history
// relevant to a set of outgoing commits. The result is ordered by successor
// for determinism.
func EntriesForNodes(store Store, nodes []Node) ([]*Entry, error) {
	seen := mapset.NewSet[Node]()
	remaining := slices.Clone(nodes)
	var entries []*Entry
	for len(remaining) > 0 {
		current := remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
		if seen.Contains(current) {
			continue
		}
		seen.Add(current)
		entry, err := Lookup(store, current)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		entries = append(entries, entry)
		for _, pred := range entry.Preds {
			if !seen.Contains(pred) {
				remaining = append(remaining, pred)
			}
		}
	}
	slices.SortFunc(entries, func(a, b *Entry) int {
		return strings.Compare(string(a.Succ), string(b.Succ))
	})
	return entries, nil
}

func (cfg *Config) user() string {
	if cfg != nil && cfg.User != "" {
		return cfg.User
	}
	return "unknown"
}

func (cfg *Config) now() (int64, int) {
	if cfg != nil && cfg.Date != "" {
		tStr, tzStr, _ := strings.Cut(cfg.Date, " ")
		if t, err := strconv.ParseInt(tStr, 10, 64); err == nil {
			tz, _ := strconv.Atoi(tzStr)
			return t, tz
		}
	}
	now := time.Now()
	_, offset := now.Zone()
	return now.Unix(), offset / 60
}
