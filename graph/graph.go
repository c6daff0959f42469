// Package graph holds the program graph consumed by the taint engine: nodes
// for program values and directed, kind-labelled edges for the data flows
// between them. A graph is append-only while a front-end builds it and is a
// read-only snapshot once analysis starts; rule-derived edges live in
// per-run Overlays and never modify the snapshot.
package graph

import (
	"encoding/json"
	"fmt"
	"iter"
)

// NodeID uniquely identifies a node within one graph.
type NodeID string

// NodeKind classifies what program value a node stands for.
type NodeKind int

const (
	KindParameter NodeKind = iota // formal parameter of a function
	KindCallArgument              // actual argument at a call site
	KindCallReturn                // result value of a call site
	KindField                     // field of an object or struct
	KindLocal                     // local variable or intermediate value
)

func (k NodeKind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindCallArgument:
		return "call-argument"
	case KindCallReturn:
		return "call-return"
	case KindField:
		return "field"
	case KindLocal:
		return "local"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// MarshalJSON writes the kind in its string form so serialized nodes match
// the document vocabulary instead of exposing internal ordinals.
func (k NodeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *NodeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := ParseNodeKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func (k NodeKind) MarshalYAML() (any, error) { return k.String(), nil }

// Location is a source position attached to a node.
type Location struct {
	File      string `json:"file" yaml:"file"`
	StartLine int    `json:"start_line" yaml:"start_line"`
	EndLine   int    `json:"end_line" yaml:"end_line"`
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	if l.EndLine > l.StartLine {
		return fmt.Sprintf("%s:%d-%d", l.File, l.StartLine, l.EndLine)
	}
	return fmt.Sprintf("%s:%d", l.File, l.StartLine)
}

// Node is a program value or expression. Nodes are immutable once added to a
// graph; classifiers match on the attribute fields.
type Node struct {
	ID   NodeID   `json:"id" yaml:"id"`
	Kind NodeKind `json:"kind" yaml:"kind"`
	Loc  Location `json:"loc" yaml:"loc"`

	// Call is the qualified callee name of the enclosing call site for
	// call-argument and call-return nodes, empty otherwise.
	Call string `json:"call,omitempty" yaml:"call,omitempty"`
	// Index is the argument position for call-argument nodes. Position 0 is
	// the receiver for method calls. -1 when not applicable.
	Index int `json:"index" yaml:"index"`
	// Name is the identifier or field name, when the node has one.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Literal holds the constant text when the node is a literal value.
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

func (n *Node) String() string {
	return fmt.Sprintf("%s<%s@%s>", n.ID, n.Kind, n.Loc)
}

// EdgeKind labels the flow relation an edge models.
type EdgeKind int

const (
	EdgeAssign EdgeKind = iota // direct assignment or value conversion
	EdgeArgBind                // actual argument bound to a formal parameter
	EdgeReturnBind             // callee result bound to the call-return value
	EdgeFieldStore             // value stored into a field
	EdgeFieldLoad              // value loaded out of a field
	EdgeDerived                // synthesised by an additional-step rule
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeAssign:
		return "assign"
	case EdgeArgBind:
		return "arg-bind"
	case EdgeReturnBind:
		return "return-bind"
	case EdgeFieldStore:
		return "field-store"
	case EdgeFieldLoad:
		return "field-load"
	case EdgeDerived:
		return "derived"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// MarshalJSON writes the kind in its string form. Unlike ParseEdgeKind,
// the unmarshal side accepts "derived": findings carry derived edges even
// though documents never do.
func (k EdgeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *EdgeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "derived" {
		*k = EdgeDerived
		return nil
	}
	kind, err := ParseEdgeKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func (k EdgeKind) MarshalYAML() (any, error) { return k.String(), nil }

// Edge is a directed flow from one node to another. Rule is set only on
// derived edges and names the rule that introduced the step.
type Edge struct {
	From NodeID   `json:"from" yaml:"from"`
	To   NodeID   `json:"to" yaml:"to"`
	Kind EdgeKind `json:"kind" yaml:"kind"`
	Rule string   `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// Neighbor pairs an outgoing edge with the node it reaches.
type Neighbor struct {
	Edge Edge
	Node *Node
}

// Graph is the analysable unit: an append-only set of nodes and edges with
// insertion-ordered adjacency. Insertion order is load-bearing: the search
// engine breaks shortest-path ties by it.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
	out   map[NodeID][]Neighbor

	edgeCount int
	edgeSeen  map[Edge]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[NodeID]*Node),
		out:      make(map[NodeID][]Neighbor),
		edgeSeen: make(map[Edge]struct{}),
	}
}

// AddNode appends a node. Re-adding an identical node is a no-op; re-adding
// the same ID with different attributes fails with a DuplicateNodeError.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("graph: node without id")
	}
	if prev, ok := g.nodes[n.ID]; ok {
		if *prev == n {
			return nil
		}
		return &DuplicateNodeError{ID: n.ID}
	}
	copied := n
	g.nodes[n.ID] = &copied
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge appends a base edge between two existing nodes. Both endpoints
// must already be present and the exact edge must not exist yet. Derived
// edges never enter the base graph; they live in per-run Overlays.
func (g *Graph) AddEdge(from, to NodeID, kind EdgeKind) error {
	if kind == EdgeDerived {
		return fmt.Errorf("graph: derived edges belong in an Overlay")
	}
	e := Edge{From: from, To: to, Kind: kind}
	if _, ok := g.nodes[e.From]; !ok {
		return &UnknownNodeError{ID: e.From}
	}
	if _, ok := g.nodes[e.To]; !ok {
		return &UnknownNodeError{ID: e.To}
	}
	if _, ok := g.edgeSeen[e]; ok {
		return &DuplicateEdgeError{Edge: e}
	}
	g.edgeSeen[e] = struct{}{}
	g.out[e.From] = append(g.out[e.From], Neighbor{Edge: e, Node: g.nodes[e.To]})
	g.edgeCount++
	return nil
}

// Node looks a node up by ID.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Neighbors returns the outgoing edges of a node in insertion order. The
// returned slice is shared; callers must not modify it.
func (g *Graph) Neighbors(id NodeID) []Neighbor {
	return g.out[id]
}

// All yields every node in insertion order. The sequence is lazy and can be
// restarted any number of times.
func (g *Graph) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, id := range g.order {
			if !yield(g.nodes[id]) {
				return
			}
		}
	}
}

// Len reports the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// EdgeCount reports the number of base edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Edges returns a copy of all edges in insertion order per source node,
// nodes in insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edgeCount)
	for _, id := range g.order {
		for _, nb := range g.out[id] {
			edges = append(edges, nb.Edge)
		}
	}
	return edges
}
