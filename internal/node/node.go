// Package node defines the vocabulary shared by every layer of the engine:
// the canvas node, the directed edge between two nodes, and the set of node
// types the engine understands.
package node

import "strings"

// Type identifies what a node does in a pipeline. Start and End are sentinel
// types bounding an executable path; every other type is a transformation
// step with its own configuration record.
type Type string

const (
	// Start marks the beginning of an executable pipeline.
	Start Type = "start"
	// End marks the end of an executable pipeline.
	End Type = "end"
	// Select keeps a subset of columns.
	Select Type = "select"
	// Filter keeps the rows matching a predicate.
	Filter Type = "filter"
	// Str applies a string operation to a column.
	Str Type = "str"
	// Rename renames a column.
	Rename Type = "rename"
	// Slice extracts part of each value in a column.
	Slice Type = "slice"
)

// ParseType normalizes a raw type string. "string" is accepted as an alias
// for Str. Unknown types are returned unchanged so that opaque editor types
// travel through the engine untouched.
func ParseType(raw string) Type {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "string" {
		return Str
	}
	return Type(t)
}

// IsSentinel reports whether the type is Start or End.
func (t Type) IsSentinel() bool {
	return t == Start || t == End
}

// Position is the canvas location of a node. It is owned by the editor.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single step (or Start/End marker) in a pipeline graph. Identity is
// ID; the layout fields are opaque to the engine and carried verbatim.
type Node struct {
	ID       string         `json:"id"`
	Type     Type           `json:"type"`
	Label    string         `json:"label,omitempty"`
	Position *Position      `json:"position,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Edge is a directed "runs before" connection from Source to Target.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// IDs returns the ids of the given nodes, in order.
func IDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// Touches reports whether the edge has an endpoint in the given id set.
func (e Edge) Touches(ids map[string]struct{}) bool {
	if _, ok := ids[e.Source]; ok {
		return true
	}
	_, ok := ids[e.Target]
	return ok
}

// Set builds a lookup set from a list of ids.
func Set(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
