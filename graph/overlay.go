package graph

// Overlay holds the rule-derived edges of a single analysis run. Derived
// edges never enter the base graph: the snapshot stays immutable, its
// fingerprint stable, and two runs over the same graph cannot see each
// other's edges. Traversals consult the base adjacency first, then the
// overlay.
type Overlay struct {
	base      *Graph
	out       map[NodeID][]Neighbor
	edgeSeen  map[Edge]struct{}
	edgeCount int
}

// NewOverlay returns an empty overlay over a base graph.
func NewOverlay(base *Graph) *Overlay {
	return &Overlay{
		base:     base,
		out:      make(map[NodeID][]Neighbor),
		edgeSeen: make(map[Edge]struct{}),
	}
}

// Add records a derived edge between two base-graph nodes. The kind is
// forced to EdgeDerived. Duplicates are tolerated: two rules may
// legitimately derive the same step, and the union keeps one copy.
func (o *Overlay) Add(e Edge) error {
	e.Kind = EdgeDerived
	if _, ok := o.base.nodes[e.From]; !ok {
		return &UnknownNodeError{ID: e.From}
	}
	to, ok := o.base.nodes[e.To]
	if !ok {
		return &UnknownNodeError{ID: e.To}
	}
	if _, ok := o.edgeSeen[e]; ok {
		return nil
	}
	o.edgeSeen[e] = struct{}{}
	o.out[e.From] = append(o.out[e.From], Neighbor{Edge: e, Node: to})
	o.edgeCount++
	return nil
}

// Neighbors returns the derived edges leaving a node in insertion order.
// A nil overlay has no neighbors.
func (o *Overlay) Neighbors(id NodeID) []Neighbor {
	if o == nil {
		return nil
	}
	return o.out[id]
}

// EdgeCount reports the number of distinct derived edges.
func (o *Overlay) EdgeCount() int {
	if o == nil {
		return 0
	}
	return o.edgeCount
}

// Edges returns a copy of the derived edges, source nodes in the base
// graph's insertion order.
func (o *Overlay) Edges() []Edge {
	if o == nil {
		return nil
	}
	edges := make([]Edge, 0, o.edgeCount)
	for _, id := range o.base.order {
		for _, nb := range o.out[id] {
			edges = append(edges, nb.Edge)
		}
	}
	return edges
}
