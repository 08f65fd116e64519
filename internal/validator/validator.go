// Package validator decides whether a graph is an executable pipeline: it
// must reduce to exactly one path from a unique Start node to a unique End
// node. Validation is a pure, synchronous function, cheap enough to run on
// every canvas edit for live feedback.
package validator

import (
	"fmt"

	"github.com/specialistvlad/flowgrid/internal/graph"
	"github.com/specialistvlad/flowgrid/internal/node"
)

// Reason explains why a graph was rejected.
type Reason string

const (
	// NoStart means the graph has no Start node.
	NoStart Reason = "no_start"
	// NoEnd means the graph has no End node.
	NoEnd Reason = "no_end"
	// MultiStart means the graph has more than one Start node.
	MultiStart Reason = "multi_start"
	// MultiEnd means the graph has more than one End node.
	MultiEnd Reason = "multi_end"
	// NoPath means End is not reachable from Start.
	NoPath Reason = "no_path"
)

// Message returns a human-readable description of the reason.
func (r Reason) Message() string {
	switch r {
	case NoStart:
		return "the workflow has no start node"
	case NoEnd:
		return "the workflow has no end node"
	case MultiStart:
		return "the workflow has more than one start node"
	case MultiEnd:
		return "the workflow has more than one end node"
	case NoPath:
		return "no path connects the start node to the end node"
	default:
		return string(r)
	}
}

// Result is the outcome of a validation. On success Path holds the nodes
// from Start through End; on failure Reason is set and Path is empty.
type Result struct {
	Valid  bool        `json:"isValid"`
	Path   []node.Node `json:"path"`
	Reason Reason      `json:"reason,omitempty"`
}

// Err converts an invalid result into an *Error. It returns nil for a valid
// result.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Reason: r.Reason}
}

// Error is the error form of an invalid Result, for callers that must stop
// rather than render feedback.
type Error struct {
	Reason Reason
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid execution path (%s): %s", e.Reason, e.Reason.Message())
}

// Validate checks start/end cardinality, then searches breadth-first from the
// Start node and returns the first discovered path to the End node. Edges
// referencing nodes outside the list are ignored.
func Validate(nodes []node.Node, edges []node.Edge) Result {
	var starts, ends []node.Node
	for _, n := range nodes {
		switch n.Type {
		case node.Start:
			starts = append(starts, n)
		case node.End:
			ends = append(ends, n)
		}
	}

	switch {
	case len(starts) == 0:
		return invalid(NoStart)
	case len(ends) == 0:
		return invalid(NoEnd)
	case len(starts) > 1:
		return invalid(MultiStart)
	case len(ends) > 1:
		return invalid(MultiEnd)
	}

	ids, ok := graph.Adjacency(nodes, edges).ShortestPath(starts[0].ID, ends[0].ID)
	if !ok {
		return invalid(NoPath)
	}

	byID := make(map[string]node.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	path := make([]node.Node, len(ids))
	for i, id := range ids {
		path[i] = byID[id]
	}
	return Result{Valid: true, Path: path}
}

func invalid(reason Reason) Result {
	return Result{Valid: false, Path: []node.Node{}, Reason: reason}
}
