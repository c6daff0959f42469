package graph

import "fmt"

// DuplicateNodeError reports a node added twice with conflicting attributes.
// It is fatal to the current analysis run.
type DuplicateNodeError struct {
	ID NodeID
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("graph: node %q added twice with conflicting attributes", e.ID)
}

// DuplicateEdgeError reports an identical base edge added twice.
type DuplicateEdgeError struct {
	Edge Edge
}

func (e *DuplicateEdgeError) Error() string {
	return fmt.Sprintf("graph: duplicate %s edge %s -> %s", e.Edge.Kind, e.Edge.From, e.Edge.To)
}

// UnknownNodeError reports an edge endpoint that is not part of the graph.
type UnknownNodeError struct {
	ID NodeID
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("graph: unknown node %q", e.ID)
}
