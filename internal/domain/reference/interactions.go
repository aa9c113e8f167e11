package reference

// InteractionStatus is the tri-state answer for an item pair
type InteractionStatus int

const (
	// InteractionUnknown means at least one item was never evaluated
	InteractionUnknown InteractionStatus = iota
	// InteractionSafe means both items were evaluated and no edge joins them
	InteractionSafe
	// InteractionConflicts means a documented interaction exists
	InteractionConflicts
)

func (s InteractionStatus) String() string {
	switch s {
	case InteractionSafe:
		return "safe"
	case InteractionConflicts:
		return "conflicts"
	default:
		return "unknown"
	}
}

// InteractionEdge is an unordered pair of interacting items
type InteractionEdge struct {
	A    string `yaml:"a" json:"a"`
	B    string `yaml:"b" json:"b"`
	Note string `yaml:"note" json:"note,omitempty"`
}

type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	a, b = NameKey(a), NameKey(b)
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// InteractionGraph is the read-only pairwise interaction table
type InteractionGraph struct {
	edges     map[pairKey]InteractionEdge
	evaluated map[string]struct{}
}

// NewInteractionGraph builds the graph. Every edge endpoint counts as evaluated.
func NewInteractionGraph(edges []InteractionEdge, evaluated []string) *InteractionGraph {
	g := &InteractionGraph{
		edges:     make(map[pairKey]InteractionEdge, len(edges)),
		evaluated: make(map[string]struct{}, len(evaluated)),
	}
	for _, name := range evaluated {
		g.evaluated[NameKey(name)] = struct{}{}
	}
	for _, e := range edges {
		g.edges[newPairKey(e.A, e.B)] = e
		g.evaluated[NameKey(e.A)] = struct{}{}
		g.evaluated[NameKey(e.B)] = struct{}{}
	}
	return g
}

// Status returns the interaction status of the pair
func (g *InteractionGraph) Status(a, b string) InteractionStatus {
	if _, ok := g.edges[newPairKey(a, b)]; ok {
		return InteractionConflicts
	}
	_, okA := g.evaluated[NameKey(a)]
	_, okB := g.evaluated[NameKey(b)]
	if okA && okB {
		return InteractionSafe
	}
	return InteractionUnknown
}

// Edge returns the documented interaction between a and b, if any
func (g *InteractionGraph) Edge(a, b string) (InteractionEdge, bool) {
	e, ok := g.edges[newPairKey(a, b)]
	return e, ok
}

// Edges returns the number of documented interactions
func (g *InteractionGraph) Edges() int {
	return len(g.edges)
}
