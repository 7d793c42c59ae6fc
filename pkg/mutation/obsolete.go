package mutation

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// ObsoleteCache tracks which commits of one repository view are obsolete,
// meaning superseded by a visible successor. The cache belongs to the view
// and is created lazily on first query; it is never invalidated
// automatically. A view mutation must discard it through
// View.ClearObsoleteCache.
//
// Before the full set has been computed, per-node answers are memoized in
// both directions. Once complete, the not-obsolete memo is dropped and
// IsObsolete degenerates to a membership test.
type ObsoleteCache struct {
	obsolete    mapset.Set[Node]
	notObsolete mapset.Set[Node]
	complete    bool
}

func newObsoleteCache() *ObsoleteCache {
	return &ObsoleteCache{
		obsolete:    mapset.NewSet[Node](),
		notObsolete: mapset.NewSet[Node](),
	}
}

// Complete reports whether the full obsolete set for the view has been
// computed.
func (c *ObsoleteCache) Complete() bool {
	return c.complete
}

// IsObsolete reports whether node has been superseded by a visible successor.
// Nodes that are not locally known, and public nodes, are never obsolete.
func (c *ObsoleteCache) IsObsolete(store Store, view *View, node Node) (bool, error) {
	if node == "" || node == NullNode {
		return false, nil
	}
	if !view.IsLocal(node) {
		return false, nil
	}
	if view.IsPublic(node) {
		return false, nil
	}
	if c.obsolete.Contains(node) {
		return true, nil
	}
	if c.complete || c.notObsolete.Contains(node) {
		return false, nil
	}

	it := AllSuccessors(store, view, []Node{node}, 1, -1)
	for {
		succ, ok := it.Next()
		if !ok {
			break
		}
		if c.obsolete.Contains(succ) || view.IsVisible(succ) {
			c.obsolete.Add(node)
			return true, nil
		}
	}
	if err := it.Err(); err != nil {
		return false, err
	}
	c.notObsolete.Add(node)
	return false, nil
}

// ObsoleteNodes computes the complete obsolete set for the view. When the
// store supports bulk computation the whole calculation is delegated to it;
// otherwise a generic seed-and-propagate traversal is used. Either way the
// cache is marked complete afterwards, so later IsObsolete calls never
// consult the store again.
//
// The bulk path treats the union of the phase sets as the visible universe.
// Under a narrow-heads view, phases must therefore exclude hidden commits
// from its draft set for the delegated result to match IsObsolete.
func (c *ObsoleteCache) ObsoleteNodes(store Store, view *View, phases PhaseSets) (mapset.Set[Node], error) {
	if c.complete {
		return c.obsolete.Clone(), nil
	}

	if bulk, ok := store.(BulkStore); ok {
		obsolete, err := bulk.CalculateObsolete(phases.PublicNodes(), phases.DraftNodes())
		if err != nil {
			return nil, err
		}
		c.obsolete = obsolete.Clone()
		c.markComplete()
		return c.obsolete.Clone(), nil
	}

	// Seed: a draft whose successor chain reaches a visible commit is
	// obsolete.
	for _, node := range phases.DraftNodes() {
		if c.obsolete.Contains(node) {
			continue
		}
		it := AllSuccessors(store, view, []Node{node}, 1, -1)
		for {
			succ, ok := it.Next()
			if !ok {
				break
			}
			if view.IsVisible(succ) {
				c.obsolete.Add(node)
				break
			}
		}
		if err := it.Err(); err != nil {
			return nil, err
		}
	}

	// Propagate backward through predecessor edges. The worklist keeps
	// traversing through predecessors that are not visible, so a chain of
	// invisible rewrites still carries obsolescence to a visible ancestor
	// several hops back, but only visible non-null predecessors join the
	// result set.
	candidates := c.obsolete.Clone()
	seen := c.obsolete.Clone()
	for candidates.Cardinality() > 0 {
		candidate, _ := candidates.Pop()
		entry, err := LookupSplit(store, candidate)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		for _, pred := range entry.Preds {
			if seen.Contains(pred) {
				continue
			}
			seen.Add(pred)
			candidates.Add(pred)
			if pred != NullNode && view.IsVisible(pred) {
				c.obsolete.Add(pred)
			}
		}
	}

	c.markComplete()
	return c.obsolete.Clone(), nil
}

func (c *ObsoleteCache) markComplete() {
	c.complete = true
	// The not-obsolete memo only matters while the set is partial.
	c.notObsolete = mapset.NewSet[Node]()
}
