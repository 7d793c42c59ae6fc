package mutation

import (
	"slices"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
)

func TestPredecessorsSet_AmendChain(t *testing.T) {
	// a -> b -> c, all visible.
	store := newTestStore(amend("b", "a"), amend("c", "b"))
	view := NewView(newTestChangelog().drafts("a", "b", "c"), false)

	preds, err := PredecessorsSet(store, view, "c", true)
	if err != nil {
		t.Fatalf("PredecessorsSet(closest): %v", err)
	}
	if !slices.Equal(preds, []Node{"b"}) {
		t.Errorf("closest predecessors = %v, want [b]", preds)
	}

	preds, err = PredecessorsSet(store, view, "c", false)
	if err != nil {
		t.Fatalf("PredecessorsSet: %v", err)
	}
	if !slices.Equal(preds, []Node{"a"}) {
		t.Errorf("oldest predecessors = %v, want [a]", preds)
	}
}

func TestPredecessorsSet_SplitResolvesToSource(t *testing.T) {
	// s split into s1, s2; head entry on s2.
	store := newTestStore(
		amend("s", "a", "b"),
		&Entry{Succ: "s2", Preds: []Node{"s"}, Split: []Node{"s1"}, Op: "split"},
	)
	view := NewView(newTestChangelog().drafts("a", "b", "s", "s1", "s2"), false)

	preds, err := PredecessorsSet(store, view, "s1", true)
	if err != nil {
		t.Fatalf("PredecessorsSet: %v", err)
	}
	if !slices.Equal(preds, []Node{"s"}) {
		t.Errorf("PredecessorsSet(s1, closest) = %v, want [s]", preds)
	}
}

func TestPredecessorsSet_ExpandsPastInvisible(t *testing.T) {
	// a -> b -> c where b is not locally known: the closest resolvable
	// frontier for c is a.
	store := newTestStore(amend("b", "a"), amend("c", "b"))
	view := NewView(newTestChangelog().drafts("a", "c"), false)

	preds, err := PredecessorsSet(store, view, "c", true)
	if err != nil {
		t.Fatalf("PredecessorsSet: %v", err)
	}
	if !slices.Equal(preds, []Node{"a"}) {
		t.Errorf("PredecessorsSet(c, closest) = %v, want [a]", preds)
	}
}

func TestPredecessorsSet_PartialExpansionKeepsVisible(t *testing.T) {
	// Fold of a (visible) and x (invisible, itself a rewrite of w): only the
	// invisible member is expanded.
	store := newTestStore(
		amend("x", "w"),
		&Entry{Succ: "f", Preds: []Node{"a", "x"}, Op: "fold"},
	)
	view := NewView(newTestChangelog().drafts("a", "w", "f"), false)

	preds, err := PredecessorsSet(store, view, "f", true)
	if err != nil {
		t.Fatalf("PredecessorsSet: %v", err)
	}
	if !slices.Equal(preds, []Node{"a", "w"}) {
		t.Errorf("PredecessorsSet(f, closest) = %v, want [a w]", preds)
	}
}

func TestPredecessorsSet_PublicIsTerminal(t *testing.T) {
	store := newTestStore(amend("b", "a"))
	view := NewView(newTestChangelog().public("a").drafts("b"), false)

	preds, err := PredecessorsSet(store, view, "b", false)
	if err != nil {
		t.Fatalf("PredecessorsSet: %v", err)
	}
	if !slices.Equal(preds, []Node{"b"}) {
		t.Errorf("PredecessorsSet(b) = %v, want [b] (public predecessor excluded)", preds)
	}
}

func TestPredecessorsSet_CycleTerminates(t *testing.T) {
	store := newTestStore(amend("a", "b"), amend("b", "a"))
	view := NewView(newTestChangelog().drafts("a", "b"), false)

	preds, err := PredecessorsSet(store, view, "a", false)
	if err != nil {
		t.Fatalf("PredecessorsSet: %v", err)
	}
	if len(preds) == 0 {
		t.Fatal("PredecessorsSet returned empty set")
	}
}

func TestSuccProduct_Singletons(t *testing.T) {
	got := succProduct([][][]Node{{{"1"}}, {{"2"}}})
	want := [][]Node{{"1", "2"}}
	if !equalGroupLists(got, want) {
		t.Fatalf("succProduct = %v, want %v", got, want)
	}
}

func TestSuccProduct_RowMajor(t *testing.T) {
	got := succProduct([][][]Node{
		{{"1", "2"}, {"3", "4"}},
		{{"5", "6"}, {"7", "8"}},
	})
	want := [][]Node{
		{"1", "2", "5", "6"},
		{"3", "4", "5", "6"},
		{"1", "2", "7", "8"},
		{"3", "4", "7", "8"},
	}
	if !equalGroupLists(got, want) {
		t.Fatalf("succProduct = %v, want %v", got, want)
	}
}

func TestSuccProduct_SkipsDuplicateMembers(t *testing.T) {
	got := succProduct([][][]Node{{{"1", "2"}}, {{"2", "3"}}})
	want := [][]Node{{"1", "2", "3"}}
	if !equalGroupLists(got, want) {
		t.Fatalf("succProduct = %v, want %v", got, want)
	}
}

func TestSuccessorsSets_AmendChain(t *testing.T) {
	store := newTestStore(amend("b", "a"), amend("c", "b"))
	view := NewView(newTestChangelog().drafts("a", "b", "c"), false)

	sets, err := SuccessorsSets(store, view, "a", true)
	if err != nil {
		t.Fatalf("SuccessorsSets(closest): %v", err)
	}
	if len(sets) != 1 || !slices.Equal(sets[0], []Node{"b"}) {
		t.Errorf("closest successors = %v, want [[b]]", sets)
	}

	sets, err = SuccessorsSets(store, view, "a", false)
	if err != nil {
		t.Fatalf("SuccessorsSets: %v", err)
	}
	if len(sets) != 1 || !slices.Equal(sets[0], []Node{"c"}) {
		t.Errorf("newest successors = %v, want [[c]]", sets)
	}
}

func TestSuccessorsSets_Divergence(t *testing.T) {
	// a rewritten independently into b and c.
	store := newTestStore(amend("b", "a"), amend("c", "a"))
	view := NewView(newTestChangelog().drafts("a", "b", "c"), false)

	sets, err := SuccessorsSets(store, view, "a", false)
	if err != nil {
		t.Fatalf("SuccessorsSets: %v", err)
	}
	want := [][]Node{{"b"}, {"c"}}
	if !equalGroupLists(sets, want) {
		t.Errorf("SuccessorsSets(a) = %v, want %v", sets, want)
	}
}

func TestSuccessorsSets_SplitGroup(t *testing.T) {
	store := newTestStore(
		&Entry{Succ: "s2", Preds: []Node{"s"}, Split: []Node{"s1"}, Op: "split"},
	)
	view := NewView(newTestChangelog().drafts("s", "s1", "s2"), false)

	sets, err := SuccessorsSets(store, view, "s", true)
	if err != nil {
		t.Fatalf("SuccessorsSets: %v", err)
	}
	if len(sets) != 1 || !slices.Equal(sets[0], []Node{"s1", "s2"}) {
		t.Errorf("SuccessorsSets(s, closest) = %v, want [[s1 s2]]", sets)
	}
}

func TestSuccessorsSets_ThroughInvisibleChain(t *testing.T) {
	// a -> b -> c with b not locally known: resolution must reach c.
	store := newTestStore(amend("b", "a"), amend("c", "b"))
	view := NewView(newTestChangelog().drafts("a", "c"), false)

	sets, err := SuccessorsSets(store, view, "a", true)
	if err != nil {
		t.Fatalf("SuccessorsSets: %v", err)
	}
	if len(sets) != 1 || !slices.Equal(sets[0], []Node{"c"}) {
		t.Errorf("SuccessorsSets(a, closest) = %v, want [[c]]", sets)
	}
}

func TestSuccessorsSets_PublicIsTerminal(t *testing.T) {
	// b landed: its successor chain must stop at the public commit.
	store := newTestStore(amend("b", "a"), amend("c", "b"))
	view := NewView(newTestChangelog().drafts("a", "c").public("b"), false)

	sets, err := SuccessorsSets(store, view, "a", false)
	if err != nil {
		t.Fatalf("SuccessorsSets: %v", err)
	}
	if len(sets) != 1 || !slices.Equal(sets[0], []Node{"b"}) {
		t.Errorf("SuccessorsSets(a) = %v, want [[b]]", sets)
	}
}

func TestSuccessorsSets_CycleTerminates(t *testing.T) {
	store := newTestStore(amend("a", "b"), amend("b", "a"))
	view := NewView(newTestChangelog().drafts("a", "b"), false)

	sets, err := SuccessorsSets(store, view, "a", false)
	if err != nil {
		t.Fatalf("SuccessorsSets: %v", err)
	}
	if len(sets) == 0 {
		t.Fatal("SuccessorsSets returned no groups")
	}
}

// testDag implements the descendant query over an explicit child map.
type testDag struct {
	children map[Node][]Node
}

func (d *testDag) Descendants(nodes []Node) (mapset.Set[Node], error) {
	out := mapset.NewSet[Node]()
	stack := slices.Clone(nodes)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out.Contains(n) {
			continue
		}
		out.Add(n)
		stack = append(stack, d.children[n]...)
	}
	return out, nil
}

func TestForeground_DescendantsAndSuccessors(t *testing.T) {
	// p has child c1; c1 was amended to c2, which has child c3.
	store := newTestStore(amend("c2", "c1"))
	view := NewView(newTestChangelog().drafts("p", "c1", "c2", "c3"), false)
	d := &testDag{children: map[Node][]Node{
		"p":  {"c1"},
		"c2": {"c3"},
	}}

	fg, err := Foreground(store, view, d, []Node{"p"})
	if err != nil {
		t.Fatalf("Foreground: %v", err)
	}
	for _, n := range []Node{"p", "c1", "c2", "c3"} {
		if !fg.Contains(n) {
			t.Errorf("foreground missing %s (got %v)", n, fg.ToSlice())
		}
	}
	if fg.Cardinality() != 4 {
		t.Errorf("foreground = %v, want exactly {p c1 c2 c3}", fg.ToSlice())
	}
}

func TestAllSuccessors_DepthBounds(t *testing.T) {
	store := newTestStore(amend("b", "a"), amend("c", "b"))
	view := NewView(newTestChangelog().drafts("a", "b", "c"), false)

	collect := func(startDepth, stopDepth int) []Node {
		t.Helper()
		it := AllSuccessors(store, view, []Node{"a"}, startDepth, stopDepth)
		var out []Node
		for {
			n, ok := it.Next()
			if !ok {
				break
			}
			out = append(out, n)
		}
		if err := it.Err(); err != nil {
			t.Fatalf("AllSuccessors: %v", err)
		}
		return out
	}

	if got := collect(0, -1); !slices.Equal(got, []Node{"a", "b", "c"}) {
		t.Errorf("unbounded walk = %v, want [a b c]", got)
	}
	if got := collect(1, -1); !slices.Equal(got, []Node{"b", "c"}) {
		t.Errorf("startDepth=1 walk = %v, want [b c]", got)
	}
	if got := collect(1, 2); !slices.Equal(got, []Node{"b"}) {
		t.Errorf("depth window [1,2) walk = %v, want [b]", got)
	}
	if got := collect(0, 0); got != nil {
		t.Errorf("stopDepth=0 walk = %v, want empty", got)
	}
}

func TestAllPredecessors_WalksSplitMembers(t *testing.T) {
	store := newTestStore(
		amend("s", "a"),
		&Entry{Succ: "s2", Preds: []Node{"s"}, Split: []Node{"s1"}, Op: "split"},
	)
	view := NewView(newTestChangelog().drafts("a", "s", "s1", "s2"), false)

	it := AllPredecessors(store, view, []Node{"s1"}, 1, -1)
	var out []Node
	for {
		n, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, n)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("AllPredecessors: %v", err)
	}
	if !slices.Equal(out, []Node{"s", "a"}) {
		t.Errorf("AllPredecessors(s1) = %v, want [s a]", out)
	}
}
