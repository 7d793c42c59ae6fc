package mutation

import (
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// BundleStore overlays a transient batch of entries, typically unpacked from
// a network bundle, on top of a durable store. Queries merge results from
// both sides; either may answer. The overlay is a read-only projection,
// created fresh per bundle read and discarded after use.
type BundleStore struct {
	base       Store
	entries    map[Node]*Entry
	splitHeads map[Node]Node
	succSets   map[Node][]overlayGroup
}

// overlayGroup remembers which entry contributed a successor group, so
// queries can skip groups from mid-split entries that a head entry covers.
type overlayGroup struct {
	from  Node
	group []Node
}

// NewBundleStore builds the overlay indexes from a batch of bundle entries
// and combines them with base.
func NewBundleStore(base Store, entries []*Entry) *BundleStore {
	s := &BundleStore{
		base:       base,
		entries:    make(map[Node]*Entry, len(entries)),
		splitHeads: make(map[Node]Node),
		succSets:   make(map[Node][]overlayGroup),
	}
	s.addBundleEntries(entries)
	return s
}

func (s *BundleStore) addBundleEntries(entries []*Entry) {
	for _, entry := range entries {
		s.entries[entry.Succ] = entry
		for _, sibling := range entry.Split {
			s.splitHeads[sibling] = entry.Succ
		}
		group := entry.SuccessorGroup()
		for _, pred := range entry.Preds {
			s.succSets[pred] = append(s.succSets[pred], overlayGroup{from: entry.Succ, group: group})
		}
	}
}

// Get returns the entry for node from the overlay or the durable store.
func (s *BundleStore) Get(node Node) (*Entry, error) {
	if entry, ok := s.entries[node]; ok {
		return entry, nil
	}
	return s.base.Get(node)
}

// Has reports whether either side holds an entry for node.
func (s *BundleStore) Has(node Node) (bool, error) {
	if _, ok := s.entries[node]; ok {
		return true, nil
	}
	return s.base.Has(node)
}

// GetSplitHead returns the split head for node from either side.
func (s *BundleStore) GetSplitHead(node Node) (Node, bool, error) {
	if head, ok := s.splitHeads[node]; ok {
		return head, true, nil
	}
	return s.base.GetSplitHead(node)
}

// GetSuccessorsSets returns the union of both sides. When both are non-empty,
// exact duplicate sequences are removed; the dedup is order-sensitive, two
// groups with the same members in a different order are distinct.
func (s *BundleStore) GetSuccessorsSets(node Node) ([][]Node, error) {
	base, err := s.base.GetSuccessorsSets(node)
	if err != nil {
		return nil, err
	}
	var overlay [][]Node
	for _, og := range s.succSets[node] {
		// A group contributed by a mid-split entry is covered by the split
		// head's group; reporting both would fabricate divergence.
		head, ok, err := s.GetSplitHead(og.from)
		if err != nil {
			return nil, err
		}
		if ok && head != og.from {
			continue
		}
		overlay = append(overlay, og.group)
	}
	if len(overlay) == 0 {
		return base, nil
	}
	if len(base) == 0 {
		return cloneGroups(overlay), nil
	}
	merged := make([][]Node, 0, len(base)+len(overlay))
	merged = append(merged, base...)
	merged = append(merged, cloneGroups(overlay)...)
	return removeDuplicateSequences(merged), nil
}

// Add is unsupported: the overlay is a read-only projection.
func (s *BundleStore) Add(*Entry) error {
	return ErrReadOnlyStore
}

// Flush is a no-op; the durable store owns flush semantics.
func (s *BundleStore) Flush() error {
	return nil
}

func cloneGroups(groups [][]Node) [][]Node {
	out := make([][]Node, len(groups))
	for i, g := range groups {
		out[i] = slices.Clone(g)
	}
	return out
}

// removeDuplicateSequences drops exact duplicate groups, preserving first
// occurrence and within-group order.
func removeDuplicateSequences(groups [][]Node) [][]Node {
	seen := mapset.NewSet[string]()
	out := groups[:0]
	for _, g := range groups {
		key := orderedGroupKey(g)
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		out = append(out, g)
	}
	return out
}

func orderedGroupKey(group []Node) string {
	parts := make([]string, len(group))
	for i, n := range group {
		parts[i] = string(n)
	}
	return strings.Join(parts, "\x00")
}
