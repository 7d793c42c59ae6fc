package mutation

import (
	"fmt"
	"slices"
	"strings"
)

// Fated describes one way an obsolete commit was replaced: the successor
// group and the operation that produced it.
type Fated struct {
	Successors []Node
	Op         string
}

// Fate returns what happened to an obsolete node, one result per closest
// successor group. A group that is just the node itself means the commit was
// stripped with no replacement and is skipped. Non-obsolete nodes have no
// fate.
func Fate(store Store, view *View, node Node) ([]Fated, error) {
	obsolete, err := view.Obsolete().IsObsolete(store, view, node)
	if err != nil {
		return nil, err
	}
	if !obsolete {
		return nil, nil
	}

	sets, err := SuccessorsSets(store, view, node, true)
	if err != nil {
		return nil, err
	}

	var fates []Fated
	for _, set := range sets {
		switch {
		case len(set) == 1 && set[0] == node:
			// Stripped with no replacement.
		case len(set) > 1:
			fates = append(fates, Fated{Successors: set, Op: "split"})
		default:
			succ := set[0]
			entry, err := store.Get(succ)
			if err != nil {
				return nil, err
			}
			if entry != nil && slices.Contains(entry.Preds, node) {
				fates = append(fates, Fated{Successors: set, Op: entry.Op})
			} else if view.IsPublic(succ) {
				fates = append(fates, Fated{Successors: set, Op: "land"})
			} else {
				fates = append(fates, Fated{Successors: set, Op: "rewrite"})
			}
		}
	}
	return fates, nil
}

// Summary renders a fate for display, e.g.
// "rewritten using amend as 1f2e3d4c".
func (f Fated) Summary() string {
	short := make([]string, len(f.Successors))
	for i, n := range f.Successors {
		short[i] = shortNode(n)
	}
	succs := strings.Join(short, ", ")
	switch f.Op {
	case "split":
		return fmt.Sprintf("split into %s", succs)
	case "land":
		return fmt.Sprintf("landed as %s", succs)
	case "":
		return fmt.Sprintf("rewritten as %s", succs)
	default:
		return fmt.Sprintf("rewritten using %s as %s", f.Op, succs)
	}
}

func shortNode(n Node) string {
	if len(n) > 8 {
		return string(n[:8])
	}
	return string(n)
}
