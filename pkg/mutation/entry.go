package mutation

import "slices"

// Node is a 40-character hex-encoded commit hash, treated as an opaque
// comparable value. No arithmetic is ever performed on it.
type Node string

// NullNode is the hash of the absent commit.
const NullNode Node = "0000000000000000000000000000000000000000"

// Phase classifies commit mutability.
type Phase int

const (
	PhasePublic Phase = iota
	PhaseDraft
	PhaseSecret
)

func (p Phase) String() string {
	switch p {
	case PhasePublic:
		return "public"
	case PhaseDraft:
		return "draft"
	case PhaseSecret:
		return "secret"
	default:
		return "unknown"
	}
}

// Entry records the origin of one commit: which commits it replaced, through
// which operation, and by whom. Entries are immutable values keyed by Succ;
// a store holds at most one entry per successor, and callers must not write
// conflicting entries for the same successor.
type Entry struct {
	Succ Node

	// Preds are the commits replaced by Succ, in order. The first
	// predecessor drives continuation-of-split detection.
	Preds []Node

	// Split lists the sibling commits produced by the same split operation.
	// Present only when Succ is one head of a multi-way split.
	Split []Node

	// Op is the operation name ("amend", "rebase", "split", "fold", ...).
	// May be empty.
	Op string

	User string
	Time int64 // unix seconds
	Tz   int   // offset minutes

	// Extra is free-form metadata, not interpreted by the engine.
	Extra map[string]string
}

// SuccessorGroup returns the full ordered group of commits that together
// replace each predecessor of the entry: the split siblings, if any, followed
// by the successor itself. Recording conventions differ on whether the split
// list already names the successor, so duplicates are dropped.
func (e *Entry) SuccessorGroup() []Node {
	group := make([]Node, 0, len(e.Split)+1)
	for _, n := range e.Split {
		if !slices.Contains(group, n) {
			group = append(group, n)
		}
	}
	if !slices.Contains(group, e.Succ) {
		group = append(group, e.Succ)
	}
	return group
}
