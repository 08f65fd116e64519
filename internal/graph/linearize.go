package graph

import "github.com/specialistvlad/flowgrid/internal/node"

// Linearize returns the reachable nodes in display order: a depth-first walk
// from every source node (at least one outgoing edge, no incoming edge), in
// node list order. Successors are visited in edge list order and no node is
// repeated. Nodes that are not reachable from a source, such as isolated
// nodes or members of a source-less cycle, are omitted.
//
// The result is not a guarantee of a single coherent pipeline: several
// disconnected branches are concatenated.
func Linearize(nodes []node.Node, edges []node.Edge) []node.Node {
	adj := Adjacency(nodes, edges)

	byID := make(map[string]node.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	ids := adj.Walk(adj.Sources()...)
	ordered := make([]node.Node, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, byID[id])
	}
	return ordered
}
