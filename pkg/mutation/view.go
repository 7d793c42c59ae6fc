package mutation

// Changelog is the commit-graph surface the engine reads. Implementations
// must degrade gracefully: a node that cannot be resolved locally reports
// false rather than an error, so obsolescence and phase queries keep working
// for commits that are not present.
type Changelog interface {
	// HasNode reports whether the commit exists in the local changelog.
	HasNode(node Node) bool

	// Phase returns the commit's phase. The second result is false for
	// nodes whose phase cannot be determined locally.
	Phase(node Node) (Phase, bool)
}

// PhaseSets is the bulk surface of the phase cache, used by the obsolescence
// cache to enumerate a whole view.
type PhaseSets interface {
	PublicNodes() []Node
	DraftNodes() []Node
}

// VisibilityPolicy maps raw commit existence to the visible and local
// predicates used inside traversal loops. The policy is chosen once at view
// construction so the hot loops carry no mode branching.
type VisibilityPolicy interface {
	// IsVisible reports whether the commit appears in the normal filtered
	// view of history.
	IsVisible(node Node) bool

	// IsLocal reports whether the changelog can resolve the commit without
	// a remote round-trip.
	IsLocal(node Node) bool
}

// classicPolicy treats changelog membership as visibility.
type classicPolicy struct {
	cl Changelog
}

func (p classicPolicy) IsVisible(node Node) bool { return p.cl.HasNode(node) }
func (p classicPolicy) IsLocal(node Node) bool   { return p.cl.HasNode(node) }

// narrowHeadsPolicy treats a commit as visible when it is locally known and
// not secret.
type narrowHeadsPolicy struct {
	cl Changelog
}

func (p narrowHeadsPolicy) IsVisible(node Node) bool {
	if !p.cl.HasNode(node) {
		return false
	}
	phase, ok := p.cl.Phase(node)
	return ok && phase != PhaseSecret
}

func (p narrowHeadsPolicy) IsLocal(node Node) bool { return p.cl.HasNode(node) }

// View binds an immutable snapshot of the commit graph to a visibility policy
// and owns the per-view obsolescence cache. Views are single-threaded; the
// collaborator that mutates the commit graph must build a fresh view or call
// ClearObsoleteCache when commits are added or visibility changes.
type View struct {
	cl       Changelog
	policy   VisibilityPolicy
	obsolete *ObsoleteCache
}

// NewView creates a view over cl. When narrowHeads is set the narrow-heads
// visibility policy is used instead of the classic changelog-membership one.
func NewView(cl Changelog, narrowHeads bool) *View {
	var policy VisibilityPolicy = classicPolicy{cl: cl}
	if narrowHeads {
		policy = narrowHeadsPolicy{cl: cl}
	}
	return &View{cl: cl, policy: policy}
}

// IsPublic reports whether node is known locally and public. Public commits
// are immutable: traversal treats them as terminal.
func (v *View) IsPublic(node Node) bool {
	phase, ok := v.cl.Phase(node)
	return ok && phase == PhasePublic
}

// IsVisible reports whether node appears in the normal filtered view.
func (v *View) IsVisible(node Node) bool { return v.policy.IsVisible(node) }

// IsLocal reports whether node can be resolved without a remote round-trip.
func (v *View) IsLocal(node Node) bool { return v.policy.IsLocal(node) }

// Obsolete returns the view's obsolescence cache, creating it on first use.
func (v *View) Obsolete() *ObsoleteCache {
	if v.obsolete == nil {
		v.obsolete = newObsoleteCache()
	}
	return v.obsolete
}

// ClearObsoleteCache discards the obsolescence cache. Must be called by the
// collaborator that mutates the commit graph; the cache is never invalidated
// automatically.
func (v *View) ClearObsoleteCache() {
	v.obsolete = nil
}
