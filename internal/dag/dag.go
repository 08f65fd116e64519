package dag

import (
	"fmt"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{id: id}
	g.order = append(g.order, id)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// An error is returned if either node does not exist. Parallel edges are
// kept, so a successor may appear more than once.
func (g *Graph) AddEdge(fromID, toID string) error {
	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	fromNode.successors = append(fromNode.successors, toID)
	toNode.inDegree++
	return nil
}

// Has reports whether a node with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Successors returns the targets of the node's outgoing edges in insertion
// order. Unknown ids have no successors.
func (g *Graph) Successors(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, len(n.successors))
	copy(out, n.successors)
	return out
}

// Sources returns, in node insertion order, every node that has at least one
// outgoing edge and no incoming edge.
func (g *Graph) Sources() []string {
	var sources []string
	for _, id := range g.order {
		n := g.nodes[id]
		if len(n.successors) > 0 && n.inDegree == 0 {
			sources = append(sources, id)
		}
	}
	return sources
}

// Walk performs a depth-first traversal from each root in turn and returns
// every node in first-visit order. A node reachable from several roots, or
// through several paths, appears once.
func (g *Graph) Walk(roots ...string) []string {
	visited := make(map[string]bool, len(g.nodes))
	var result []string

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		result = append(result, id)
		for _, next := range g.nodes[id].successors {
			visit(next)
		}
	}

	for _, root := range roots {
		if g.Has(root) {
			visit(root)
		}
	}
	return result
}

// ShortestPath runs a breadth-first search from `fromID` and returns the first
// discovered path to `toID`, both endpoints included. Successors are explored
// in insertion order, so the result is the first path found in BFS order,
// which is also a shortest path in edge count.
func (g *Graph) ShortestPath(fromID, toID string) ([]string, bool) {
	if !g.Has(fromID) || !g.Has(toID) {
		return nil, false
	}

	parent := map[string]string{}
	visited := map[string]bool{fromID: true}
	queue := []string{fromID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == toID {
			return buildPath(parent, fromID, toID), true
		}

		for _, next := range g.nodes[current].successors {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = current
			queue = append(queue, next)
		}
	}
	return nil, false
}

// buildPath walks the BFS parent links back from `toID`.
func buildPath(parent map[string]string, fromID, toID string) []string {
	path := []string{toID}
	for current := toID; current != fromID; {
		current = parent[current]
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Reachable returns the set of nodes reachable from `fromID`, including itself.
func (g *Graph) Reachable(fromID string) map[string]bool {
	seen := make(map[string]bool)
	for _, id := range g.Walk(fromID) {
		seen[id] = true
	}
	return seen
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, indicating the first node involved in the detected cycle.
func (g *Graph) DetectCycles() error {
	// Use classic depth-first search with three sets of nodes:
	// permanent: nodes that have been fully visited and are not part of a cycle.
	// temporary: nodes currently in the recursion stack for the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("cycle detected involving node '%s'", id)
		}

		temporary[id] = true
		for _, next := range g.nodes[id].successors {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
