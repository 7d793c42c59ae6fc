package mutation

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Iter is a single-pass stream of nodes produced by a level-order walk of the
// mutation graph. It is not restartable: once Next returns false the walk is
// exhausted, and a fresh walk must be started from scratch. Check Err after
// the walk ends.
//
// Within a level beyond the starting set, nodes are yielded in lexicographic
// order, not discovery order. That keeps the walk deterministic but is an
// ordering of this implementation; callers must not read meaning into it.
type Iter struct {
	expand     func(node Node) ([]Node, error)
	startDepth int
	stopDepth  int // negative means unbounded

	depth     int
	idx       int
	thisLevel []Node
	nextLevel mapset.Set[Node]
	seen      mapset.Set[Node]
	done      bool
	err       error
}

// AllPredecessors walks predecessor edges breadth-first from nodes, yielding
// each node at most once. Depth 0 is the starting set itself; nodes are
// yielded from startDepth up to, but not including, stopDepth. A negative
// stopDepth makes the walk unbounded. Locally known public nodes are terminal
// and never expanded.
func AllPredecessors(store Store, view *View, nodes []Node, startDepth, stopDepth int) *Iter {
	return newIter(nodes, startDepth, stopDepth, func(node Node) ([]Node, error) {
		if view.IsLocal(node) && view.IsPublic(node) {
			return nil, nil
		}
		entry, err := LookupSplit(store, node)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, nil
		}
		return entry.Preds, nil
	})
}

// AllSuccessors walks successor edges breadth-first from nodes. Same depth
// and termination semantics as AllPredecessors. Successor sets reachable only
// remotely are silently omitted; that is a documented limitation of the local
// store, not an error.
func AllSuccessors(store Store, view *View, nodes []Node, startDepth, stopDepth int) *Iter {
	return newIter(nodes, startDepth, stopDepth, func(node Node) ([]Node, error) {
		if view.IsLocal(node) && view.IsPublic(node) {
			return nil, nil
		}
		sets, err := LookupSuccessors(store, node)
		if err != nil {
			return nil, err
		}
		var next []Node
		for _, set := range sets {
			next = append(next, set...)
		}
		return next, nil
	})
}

func newIter(nodes []Node, startDepth, stopDepth int, expand func(Node) ([]Node, error)) *Iter {
	level := removeDuplicateNodes(slices.Clone(nodes))
	it := &Iter{
		expand:     expand,
		startDepth: startDepth,
		stopDepth:  stopDepth,
		thisLevel:  level,
		nextLevel:  mapset.NewSet[Node](),
		seen:       mapset.NewSet[Node](),
	}
	if stopDepth == 0 {
		it.done = true
	}
	return it
}

// Next returns the next node in the walk. The second result is false when the
// walk is exhausted or an expansion failed; distinguish via Err.
func (it *Iter) Next() (Node, bool) {
	for {
		if it.done || it.err != nil {
			return "", false
		}
		if it.idx >= len(it.thisLevel) {
			if it.nextLevel.Cardinality() == 0 {
				it.done = true
				return "", false
			}
			it.depth++
			if it.stopDepth >= 0 && it.depth >= it.stopDepth {
				it.done = true
				return "", false
			}
			level := it.nextLevel.ToSlice()
			slices.Sort(level)
			it.thisLevel = level
			it.nextLevel = mapset.NewSet[Node]()
			it.idx = 0
		}

		current := it.thisLevel[it.idx]
		it.idx++
		if it.seen.Contains(current) {
			continue
		}
		it.seen.Add(current)

		next, err := it.expand(current)
		if err != nil {
			it.err = err
			return "", false
		}
		for _, n := range next {
			if !it.seen.Contains(n) {
				it.nextLevel.Add(n)
			}
		}

		if it.depth >= it.startDepth {
			return current, true
		}
	}
}

// Err returns the first expansion error encountered, if any.
func (it *Iter) Err() error {
	return it.err
}
