package dag

// Graph is an ordered adjacency structure over string node ids.
//
// It is not safe for concurrent use; the engine builds a fresh Graph per
// traversal from the current node and edge lists.
type Graph struct {
	// order records node ids in the order they were added.
	order []string
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs).
type node struct {
	// id is the unique identifier for the node.
	id string
	// successors holds the targets of outgoing edges, in insertion order.
	successors []string
	// inDegree counts incoming edges.
	inDegree int
}
