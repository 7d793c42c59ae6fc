package mutation

import (
	"errors"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrReadOnlyStore is returned by stores that reject writes, such as the
// bundle overlay.
var ErrReadOnlyStore = errors.New("mutation store is read-only")

// Store is the successor-keyed mutation log contract. A missing entry is the
// normal terminal-node case: Get returns nil, nil rather than an error.
type Store interface {
	// Get returns the entry whose successor is node, or nil if none exists.
	Get(node Node) (*Entry, error)

	// Has reports whether an entry exists for node. Consistent with Get.
	Has(node Node) (bool, error)

	// GetSplitHead returns the designated head node of the split that node
	// is a sibling of. The second result is false when node is not a split
	// sibling.
	GetSplitHead(node Node) (Node, bool, error)

	// GetSuccessorsSets returns every known immediate successor group that
	// replaces node as a predecessor.
	GetSuccessorsSets(node Node) ([][]Node, error)

	// Add appends an entry to the log. Durability is deferred until Flush.
	Add(entry *Entry) error

	// Flush makes previously added entries durable.
	Flush() error
}

// BulkStore is implemented by stores whose backing layer supports bulk
// mutation-graph computation. The obsolescence cache prefers it over the
// generic traversal.
type BulkStore interface {
	Store

	// GetDag returns the successor-to-predecessors adjacency of the
	// mutation closure around the given nodes.
	GetDag(nodes []Node) (map[Node][]Node, error)

	// CalculateObsolete computes the full obsolete set for a view described
	// by its public and draft node sets. The union of the two sets is taken
	// as the visible universe, so callers whose visibility policy hides some
	// local commits (secrets under narrow heads) must pass phase sets
	// consistent with that policy, or the result can disagree with per-node
	// IsObsolete answers.
	CalculateObsolete(public, draft []Node) (mapset.Set[Node], error)
}

// Lookup returns the mutation entry for node, if any.
func Lookup(store Store, node Node) (*Entry, error) {
	return store.Get(node)
}

// LookupSplit returns the mutation entry for node, or the entry for the split
// that node is part of.
func LookupSplit(store Store, node Node) (*Entry, error) {
	head, ok, err := store.GetSplitHead(node)
	if err != nil {
		return nil, err
	}
	if ok {
		node = head
	}
	return store.Get(node)
}

// LookupSuccessors returns the immediate successor groups of node in a
// deterministic order.
func LookupSuccessors(store Store, node Node) ([][]Node, error) {
	sets, err := store.GetSuccessorsSets(node)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(sets, compareNodeGroups)
	return sets, nil
}

func compareNodeGroups(a, b []Node) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
