package graph

import (
	"errors"
	"fmt"
)

// ErrStructural indicates a violation of the graph's structural invariants:
// duplicate or empty node ids, duplicate edge ids, and edges that reference
// missing nodes.
var ErrStructural = errors.New("structural error")

// Structural error kinds.
const (
	KindDuplicateID   = "duplicate_id"
	KindEmptyID       = "empty_id"
	KindDanglingEdge  = "dangling_edge"
	KindDuplicateEdge = "duplicate_edge_id"
)

// StructuralError represents a structural validation failure.
// Wraps ErrStructural for errors.Is() compatibility.
type StructuralError struct {
	Kind string // One of the Kind* constants
	Msg  string // Deterministic error message
}

func (e *StructuralError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrStructural.Error()
	}
	return fmt.Sprintf("%s: %s", ErrStructural.Error(), e.Msg)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

func duplicateID(id string) error {
	return &StructuralError{Kind: KindDuplicateID, Msg: fmt.Sprintf("duplicate node ID: %q", id)}
}

func duplicateEdgeID(id string) error {
	return &StructuralError{Kind: KindDuplicateEdge, Msg: fmt.Sprintf("duplicate edge ID: %q", id)}
}

func danglingEdge(edgeID, nodeID string) error {
	return &StructuralError{
		Kind: KindDanglingEdge,
		Msg:  fmt.Sprintf("edge %q references unknown node: %q", edgeID, nodeID),
	}
}
