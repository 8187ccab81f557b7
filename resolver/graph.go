package resolver

import "github.com/OMouta/Jelly/internal/ordermap"

// ResolvedNode is one package pinned to a concrete version by the
// resolver, carrying the production+server dependencies declared by that
// version's metadata.
type ResolvedNode struct {
	ID      PackageID
	Version Version
	URL     string
	Deps    map[PackageID]Range
}

// Graph is a flat PackageID -> ResolvedNode mapping plus the retained
// top-level ranges that produced it. It is backed by an ordermap so that
// iteration (lockfile generation, `analyze` output) is always in
// deterministic, lexicographic "scope/name" order.
type Graph struct {
	nodes   *ordermap.Map[ResolvedNode]
	Direct  map[PackageID]Range // the requested top-level ranges, verbatim
}

func newGraph() *Graph {
	return &Graph{
		nodes:  ordermap.New[ResolvedNode](),
		Direct: make(map[PackageID]Range),
	}
}

// Get looks up the resolved node for id.
func (g *Graph) Get(id PackageID) (ResolvedNode, bool) {
	return g.nodes.Get(id.String())
}

// Len returns the number of resolved packages.
func (g *Graph) Len() int {
	return g.nodes.Len()
}

// IDs returns every resolved PackageID in lexicographic order.
func (g *Graph) IDs() []PackageID {
	ids := make([]PackageID, 0, g.nodes.Len())
	g.nodes.Walk(func(_ string, n ResolvedNode) bool {
		ids = append(ids, n.ID)
		return false
	})
	return ids
}

// Walk visits every resolved node in lexicographic "scope/name" order.
func (g *Graph) Walk(fn func(ResolvedNode) bool) {
	g.nodes.Walk(func(_ string, n ResolvedNode) bool {
		return fn(n)
	})
}

func (g *Graph) set(n ResolvedNode) {
	g.nodes.Insert(n.ID.String(), n)
}

// Conflict records disagreement between requirers of a package. Resolved
// is the zero Version when no intersection exists across all requirers.
type Conflict struct {
	ID          PackageID
	RequiredBy  []RequiredBy
	Resolved    Version
	HasResolved bool
}

// RequiredBy names one requirer's range contribution to a Conflict.
type RequiredBy struct {
	Requirer string // "<root>" for the project's own manifest
	Range    Range
}
