// Package dag provides an in-memory commit graph implementing the changelog
// and phase collaborator contracts the mutation engine reads. It backs the
// inspection CLI and makes the engine exercisable without a full repository.
package dag

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/odvcencio/mutgraph/pkg/mutation"
)

// Graph is an append-only commit graph. Revision numbers are assigned in
// insertion order, so parents always have lower revs than their children.
type Graph struct {
	nodes    []mutation.Node
	revs     map[mutation.Node]int
	parents  map[mutation.Node][]mutation.Node
	children map[mutation.Node][]mutation.Node
	phases   map[mutation.Node]mutation.Phase
}

// New creates an empty commit graph.
func New() *Graph {
	return &Graph{
		revs:     make(map[mutation.Node]int),
		parents:  make(map[mutation.Node][]mutation.Node),
		children: make(map[mutation.Node][]mutation.Node),
		phases:   make(map[mutation.Node]mutation.Phase),
	}
}

// AddCommit adds node with the given parents. Parents must already be in the
// graph; commits default to draft.
func (g *Graph) AddCommit(node mutation.Node, parents ...mutation.Node) error {
	if _, ok := g.revs[node]; ok {
		return fmt.Errorf("add commit: %s already exists", node)
	}
	for _, p := range parents {
		if _, ok := g.revs[p]; !ok {
			return fmt.Errorf("add commit %s: unknown parent %s", node, p)
		}
	}
	g.revs[node] = len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.parents[node] = slices.Clone(parents)
	for _, p := range parents {
		g.children[p] = append(g.children[p], node)
	}
	g.phases[node] = mutation.PhaseDraft
	return nil
}

// SetPhase sets the phase of an existing commit.
func (g *Graph) SetPhase(node mutation.Node, phase mutation.Phase) error {
	if _, ok := g.revs[node]; !ok {
		return fmt.Errorf("set phase: unknown commit %s", node)
	}
	g.phases[node] = phase
	return nil
}

// HasNode reports whether the commit exists in the graph.
func (g *Graph) HasNode(node mutation.Node) bool {
	_, ok := g.revs[node]
	return ok
}

// Phase returns the commit's phase; false for unknown commits. Lookup
// failures degrade to "not found" rather than an error so phase queries keep
// working for absent commits.
func (g *Graph) Phase(node mutation.Node) (mutation.Phase, bool) {
	phase, ok := g.phases[node]
	return phase, ok
}

// PublicNodes returns every public commit in rev order.
func (g *Graph) PublicNodes() []mutation.Node {
	return g.nodesInPhase(func(p mutation.Phase) bool { return p == mutation.PhasePublic })
}

// DraftNodes returns every non-public commit in rev order.
func (g *Graph) DraftNodes() []mutation.Node {
	return g.nodesInPhase(func(p mutation.Phase) bool { return p != mutation.PhasePublic })
}

func (g *Graph) nodesInPhase(want func(mutation.Phase) bool) []mutation.Node {
	var out []mutation.Node
	for _, node := range g.nodes {
		if want(g.phases[node]) {
			out = append(out, node)
		}
	}
	return out
}

// Descendants returns nodes together with every commit reachable from them
// through child edges. Unknown roots are ignored.
func (g *Graph) Descendants(nodes []mutation.Node) (mapset.Set[mutation.Node], error) {
	out := mapset.NewSet[mutation.Node]()
	stack := make([]mutation.Node, 0, len(nodes))
	for _, n := range nodes {
		if g.HasNode(n) {
			stack = append(stack, n)
		}
	}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out.Contains(current) {
			continue
		}
		out.Add(current)
		stack = append(stack, g.children[current]...)
	}
	return out, nil
}

// Rev returns the revision number of node.
func (g *Graph) Rev(node mutation.Node) (int, bool) {
	rev, ok := g.revs[node]
	return rev, ok
}

// NodeOf returns the node at rev.
func (g *Graph) NodeOf(rev int) (mutation.Node, bool) {
	if rev < 0 || rev >= len(g.nodes) {
		return "", false
	}
	return g.nodes[rev], true
}

// ParentRevs returns the parent revisions of rev. Out-of-range revs have no
// parents.
func (g *Graph) ParentRevs(rev int) []int {
	node, ok := g.NodeOf(rev)
	if !ok {
		return nil
	}
	parents := g.parents[node]
	out := make([]int, 0, len(parents))
	for _, p := range parents {
		out = append(out, g.revs[p])
	}
	return out
}

// Len returns the number of commits in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// unfiltered is a changelog in which every node is a locally known draft.
// Useful for inspection tools that have a mutation log but no repository.
type unfiltered struct{}

func (unfiltered) HasNode(mutation.Node) bool { return true }

func (unfiltered) Phase(mutation.Node) (mutation.Phase, bool) {
	return mutation.PhaseDraft, true
}

// Unfiltered returns a changelog that treats every node as a known draft.
func Unfiltered() mutation.Changelog {
	return unfiltered{}
}
