package mutation

import (
	"errors"
	"slices"
)

// ErrCycle is returned when commit predecessors and DAG ancestors together
// form a cycle. Rewriting history can produce contradictory orderings if
// misused; this is a real failure mode, not a corruption of the sorter.
var ErrCycle = errors.New("commit predecessors and ancestors contain a cycle")

// ParentRevs returns the parent revisions of rev in the commit graph.
type ParentRevs func(rev int) []int

// NodeRev resolves a node to its revision number. The second result is false
// for nodes absent from the graph.
type NodeRev func(node Node) (int, bool)

// ToposortRevs orders revs so that every rev appears after both its DAG
// parents and its mutation predecessors. predMap supplies predecessor edges
// in rev space; edges leaving the input set are ignored. The sort uses an
// explicit stack so pathological stacks cannot exhaust the call stack.
func ToposortRevs(revs []int, parents ParentRevs, predMap map[int][]int) ([]int, error) {
	valid := make(map[int]struct{}, len(revs))
	for _, r := range revs {
		valid[r] = struct{}{}
	}

	// deps[r] holds the revs that must come before r. Heads are the revs
	// nothing within the set depends on being after, i.e. no incoming
	// predecessor-to-descendant edge.
	deps := make(map[int][]int, len(revs))
	heads := make(map[int]struct{}, len(revs))
	for _, r := range revs {
		heads[r] = struct{}{}
	}
	for _, r := range revs {
		var in []int
		for _, p := range parents(r) {
			if _, ok := valid[p]; ok && p != r {
				in = append(in, p)
			}
		}
		for _, p := range predMap[r] {
			if _, ok := valid[p]; ok && p != r && !slices.Contains(in, p) {
				in = append(in, p)
			}
		}
		for _, p := range in {
			delete(heads, p)
		}
		deps[r] = in
	}
	if len(heads) == 0 {
		return nil, ErrCycle
	}

	headList := make([]int, 0, len(heads))
	for r := range heads {
		headList = append(headList, r)
	}
	slices.Sort(headList)
	slices.Reverse(headList)

	// Iterative DFS emitting post-order: dependencies before dependents.
	seen := make(map[int]struct{}, len(revs))
	emitted := make(map[int]struct{}, len(revs))
	order := make([]int, 0, len(revs))
	stack := headList
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			for _, next := range deps[r] {
				if _, ok := seen[next]; !ok {
					stack = append(stack, next)
				}
			}
			continue
		}
		stack = stack[:len(stack)-1]
		if _, ok := emitted[r]; !ok {
			emitted[r] = struct{}{}
			order = append(order, r)
		}
	}
	// A rev unreachable from any head sits on a cycle.
	if len(order) != len(revs) {
		return nil, ErrCycle
	}
	return order, nil
}

// Toposort orders items carrying commit nodes so that every item appears
// after the items holding its DAG parents and its closest mutation
// predecessors. Used when materializing a linear stack of commits for import
// or export.
func Toposort[T any](store Store, view *View, items []T, nodeOf func(T) Node, rev NodeRev, parents ParentRevs) ([]T, error) {
	revMap := make(map[int]int, len(items)) // rev -> index into items
	revs := make([]int, 0, len(items))
	for i, item := range items {
		r, ok := rev(nodeOf(item))
		if !ok {
			continue
		}
		revMap[r] = i
		revs = append(revs, r)
	}

	predMap := make(map[int][]int, len(revs))
	for _, r := range revs {
		node := nodeOf(items[revMap[r]])
		preds, err := PredecessorsSet(store, view, node, true)
		if err != nil {
			return nil, err
		}
		for _, p := range preds {
			pr, ok := rev(p)
			if !ok || pr == r {
				continue
			}
			if _, in := revMap[pr]; in {
				predMap[r] = append(predMap[r], pr)
			}
		}
	}

	order, err := ToposortRevs(revs, parents, predMap)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(order))
	for _, r := range order {
		out = append(out, items[revMap[r]])
	}
	return out, nil
}
