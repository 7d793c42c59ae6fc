package mutation

import (
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// PredecessorsSet returns the set of commits that startNode ultimately
// replaced, walking predecessor edges breadth-first. With closest set, the
// walk stops at the nearest frontier whose members are all locally known;
// otherwise it keeps expanding until the frontier stabilizes, finding the
// oldest resolvable set. Public predecessors are terminal and never expanded.
// The result preserves expansion order and is never empty: a node with no
// usable entry resolves to itself.
func PredecessorsSet(store Store, view *View, startNode Node, closest bool) ([]Node, error) {
	seen := mapset.NewSet(startNode)

	// get maps a node to its immediate predecessors, or to itself when it
	// has no entry or every predecessor is public or already seen. The seen
	// check is the cycle guard: a predecessor is never re-expanded.
	get := func(node Node) ([]Node, error) {
		entry, err := LookupSplit(store, node)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return []Node{node}, nil
		}
		var preds []Node
		for _, p := range entry.Preds {
			if view.IsPublic(p) || seen.Contains(p) {
				continue
			}
			preds = append(preds, p)
		}
		if len(preds) == 0 {
			return []Node{node}, nil
		}
		return preds, nil
	}

	expandAll := func(nodes []Node) ([]Node, error) {
		var out []Node
		for _, n := range nodes {
			next, err := get(n)
			if err != nil {
				return nil, err
			}
			out = append(out, next...)
		}
		return out, nil
	}

	preds := []Node{startNode}
	nextPreds, err := expandAll(preds)
	if err != nil {
		return nil, err
	}
	expanded := !slices.Equal(nextPreds, preds)
	for expanded {
		seen.Append(nextPreds...)

		var newNextPreds []Node
		if allLocal(view, nextPreds) {
			// Every node in the frontier is locally known: this is a
			// valid set to return.
			preds = nextPreds
			if closest {
				break
			}
			newNextPreds, err = expandAll(preds)
			if err != nil {
				return nil, err
			}
		} else {
			// Expand only the nodes that are not locally known, leaving
			// known ones in place so we do not walk past a usable
			// ancestor.
			for _, p := range nextPreds {
				if view.IsLocal(p) {
					newNextPreds = append(newNextPreds, p)
					continue
				}
				next, err := get(p)
				if err != nil {
					return nil, err
				}
				newNextPreds = append(newNextPreds, next...)
			}
		}

		newNextPreds = removeDuplicateNodes(newNextPreds)
		expanded = !slices.Equal(newNextPreds, nextPreds)
		nextPreds = newNextPreds
		if !expanded {
			// Stable state with some nodes still unknown locally: keep
			// the known survivors, if any.
			var local []Node
			for _, p := range nextPreds {
				if view.IsLocal(p) {
					local = append(local, p)
				}
			}
			if len(local) > 0 {
				preds = local
			}
			break
		}
	}
	return preds, nil
}

// SuccessorsSets returns the groups of commits that replaced startNode. A
// node rewritten independently in divergent ways yields one group per
// alternative; a split yields a group with more than one member. With closest
// set, the walk stops at the first generation whose members are all visible.
// The result is never empty: an unrewritten node resolves to [[startNode]].
func SuccessorsSets(store Store, view *View, startNode Node, closest bool) ([][]Node, error) {
	seen := mapset.NewSet(startNode)

	// getSets maps a node to its immediate successor groups. Locally known
	// public nodes are terminal. Groups containing an already-seen node are
	// discarded, which breaks rewrite loops.
	getSets := func(node Node) ([][]Node, error) {
		if view.IsLocal(node) && view.IsPublic(node) {
			return [][]Node{{node}}, nil
		}
		all, err := LookupSuccessors(store, node)
		if err != nil {
			return nil, err
		}
		var sets [][]Node
		for _, set := range all {
			if !groupContainsAny(set, seen) {
				sets = append(sets, set)
			}
		}
		if len(sets) == 0 {
			return [][]Node{{node}}, nil
		}
		return sets, nil
	}

	succSets := [][]Node{{startNode}}
	nextSuccSets, err := getSets(startNode)
	if err != nil {
		return nil, err
	}
	expanded := !equalGroupLists(nextSuccSets, succSets)
	for expanded {
		for _, set := range nextSuccSets {
			seen.Append(set...)
		}

		var newNextSuccSets [][]Node
		if allGroupsVisible(view, nextSuccSets) {
			// Every candidate group is fully visible: accept this
			// generation.
			succSets = nextSuccSets
			if closest {
				break
			}
			for _, set := range succSets {
				factors := make([][][]Node, 0, len(set))
				for _, succ := range set {
					sets, err := getSets(succ)
					if err != nil {
						return nil, err
					}
					factors = append(factors, sets)
				}
				newNextSuccSets = append(newNextSuccSets, succProduct(factors)...)
			}
		} else {
			// Freeze members that are individually visible and expand
			// the rest.
			for _, set := range nextSuccSets {
				factors := make([][][]Node, 0, len(set))
				for _, succ := range set {
					if view.IsVisible(succ) {
						factors = append(factors, [][]Node{{succ}})
						continue
					}
					sets, err := getSets(succ)
					if err != nil {
						return nil, err
					}
					factors = append(factors, sets)
				}
				newNextSuccSets = append(newNextSuccSets, succProduct(factors)...)
			}
		}

		newNextSuccSets = removeDuplicateGroups(newNextSuccSets)
		expanded = !equalGroupLists(newNextSuccSets, nextSuccSets)
		nextSuccSets = newNextSuccSets
		if !expanded {
			// Stable state: prune members that never became visible and
			// drop emptied groups.
			var pruned [][]Node
			for _, set := range nextSuccSets {
				var visible []Node
				for _, succ := range set {
					if view.IsVisible(succ) {
						visible = append(visible, succ)
					}
				}
				if len(visible) > 0 {
					pruned = append(pruned, visible)
				}
			}
			if len(pruned) > 0 {
				succSets = pruned
			}
			break
		}
	}
	return succSets, nil
}

// succProduct combines independent successor-set expansions of the members of
// one group into the alternative merged groups: the cartesian product across
// factors, preserving member order and skipping nodes already present in the
// accumulating group. The result size is the product of the factor sizes;
// split and divergence fan-out is small in practice, but a pathological
// history can blow this up.
func succProduct(factors [][][]Node) [][]Node {
	var product [][]Node
	for _, sets := range factors {
		if product == nil {
			product = make([][]Node, 0, len(sets))
			for _, set := range sets {
				product = append(product, slices.Clone(set))
			}
			continue
		}
		next := make([][]Node, 0, len(product)*len(sets))
		for _, set := range sets {
			for _, group := range product {
				merged := slices.Clone(group)
				for _, n := range set {
					if !slices.Contains(merged, n) {
						merged = append(merged, n)
					}
				}
				next = append(next, merged)
			}
		}
		product = next
	}
	return product
}

// Foreground returns the foreground of nodes: every descendant in the commit
// graph together with every locally known successor, iterated to a fixed
// point. Used to determine what is affected by hiding or stripping nodes.
func Foreground(store Store, view *View, dag Dag, nodes []Node) (mapset.Set[Node], error) {
	fg := mapset.NewSet(nodes...)
	for {
		before := fg.Cardinality()

		frontier := fg.ToSlice()
		descendants, err := dag.Descendants(frontier)
		if err != nil {
			return nil, err
		}
		fg = fg.Union(descendants)

		it := AllSuccessors(store, view, frontier, 1, -1)
		for {
			succ, ok := it.Next()
			if !ok {
				break
			}
			if view.IsLocal(succ) {
				fg.Add(succ)
			}
		}
		if err := it.Err(); err != nil {
			return nil, err
		}

		if fg.Cardinality() == before {
			return fg, nil
		}
	}
}

// Dag exposes the descendant query Foreground needs from the commit graph.
type Dag interface {
	Descendants(nodes []Node) (mapset.Set[Node], error)
}

func allLocal(view *View, nodes []Node) bool {
	for _, n := range nodes {
		if !view.IsLocal(n) {
			return false
		}
	}
	return true
}

func allGroupsVisible(view *View, groups [][]Node) bool {
	for _, set := range groups {
		for _, n := range set {
			if !view.IsVisible(n) {
				return false
			}
		}
	}
	return true
}

func groupContainsAny(group []Node, seen mapset.Set[Node]) bool {
	for _, n := range group {
		if seen.Contains(n) {
			return true
		}
	}
	return false
}

// removeDuplicateNodes drops exact duplicates, preserving the first
// occurrence. Frontier order matters for deterministic display and stack
// ordering, so this is list dedup, not set membership.
func removeDuplicateNodes(nodes []Node) []Node {
	seen := mapset.NewSet[Node]()
	out := nodes[:0]
	for _, n := range nodes {
		if seen.Contains(n) {
			continue
		}
		seen.Add(n)
		out = append(out, n)
	}
	return out
}

// removeDuplicateGroups drops groups with identical membership, preserving
// the first occurrence. Order within a group does not matter for dedup here,
// unlike predecessor frontiers, so the key is the sorted membership.
func removeDuplicateGroups(groups [][]Node) [][]Node {
	seen := mapset.NewSet[string]()
	out := groups[:0]
	for _, set := range groups {
		key := unorderedGroupKey(set)
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		out = append(out, set)
	}
	return out
}

func unorderedGroupKey(group []Node) string {
	sorted := make([]string, len(group))
	for i, n := range group {
		sorted[i] = string(n)
	}
	slices.Sort(sorted)
	return strings.Join(sorted, "\x00")
}

func equalGroupLists(a, b [][]Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !slices.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
