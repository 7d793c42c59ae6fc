package mutstore

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/odvcencio/mutgraph/pkg/mutation"
)

// GetDag returns the successor-to-predecessors adjacency of the mutation
// closure around nodes, following both predecessor and successor edges until
// no new entries are reachable.
func (s *Store) GetDag(nodes []mutation.Node) (map[mutation.Node][]mutation.Node, error) {
	adjacency := make(map[mutation.Node][]mutation.Node)
	seen := mapset.NewSet[mutation.Node]()
	worklist := append([]mutation.Node(nil), nodes...)
	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if seen.Contains(current) {
			continue
		}
		seen.Add(current)

		entry, err := mutation.LookupSplit(s, current)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			adjacency[entry.Succ] = append([]mutation.Node(nil), entry.Preds...)
			for _, pred := range entry.Preds {
				if !seen.Contains(pred) {
					worklist = append(worklist, pred)
				}
			}
		}

		sets, err := s.GetSuccessorsSets(current)
		if err != nil {
			return nil, err
		}
		for _, set := range sets {
			for _, succ := range set {
				if !seen.Contains(succ) {
					worklist = append(worklist, succ)
				}
			}
		}
	}
	return adjacency, nil
}

// CalculateObsolete computes the obsolete subset of draft in a view whose
// locally visible commits are exactly public together with draft. Callers in
// narrow-heads mode must keep hidden commits out of draft, or the result can
// disagree with per-node obsolescence answers. A draft is
// obsolete when its successor chain reaches another visible commit;
// obsolescence then propagates backward through predecessor edges, with the
// worklist crossing commits that are no longer present while only visible,
// non-null predecessors join the result.
func (s *Store) CalculateObsolete(public, draft []mutation.Node) (mapset.Set[mutation.Node], error) {
	visible := mapset.NewSet[mutation.Node]()
	visible.Append(public...)
	visible.Append(draft...)
	publicSet := mapset.NewSet[mutation.Node]()
	publicSet.Append(public...)

	obsolete := mapset.NewSet[mutation.Node]()
	for _, node := range draft {
		reached, err := s.chainReachesVisible(node, visible, publicSet)
		if err != nil {
			return nil, err
		}
		if reached {
			obsolete.Add(node)
		}
	}

	candidates := obsolete.Clone()
	seen := obsolete.Clone()
	for candidates.Cardinality() > 0 {
		candidate, _ := candidates.Pop()
		entry, err := mutation.LookupSplit(s, candidate)
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
			if pred != mutation.NullNode && visible.Contains(pred) {
				obsolete.Add(pred)
			}
		}
	}
	return obsolete, nil
}

// chainReachesVisible walks successor edges from node, skipping node itself,
// and reports whether any reachable successor is visible. Public successors
// are terminal.
func (s *Store) chainReachesVisible(node mutation.Node, visible, publicSet mapset.Set[mutation.Node]) (bool, error) {
	seen := mapset.NewSet(node)
	worklist := []mutation.Node{node}
	first := true
	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if !first && visible.Contains(current) {
			return true, nil
		}
		first = false
		if publicSet.Contains(current) {
			continue
		}
		sets, err := s.GetSuccessorsSets(current)
		if err != nil {
			return false, err
		}
		for _, set := range sets {
			for _, succ := range set {
				if !seen.Contains(succ) {
					seen.Add(succ)
					worklist = append(worklist, succ)
				}
			}
		}
	}
	return false, nil
}
