package graph

import (
	"fmt"

	"github.com/specialistvlad/flowgrid/internal/dag"
	"github.com/specialistvlad/flowgrid/internal/node"
)

// Graph is the node/edge buffer for one canvas. It is a passive container:
// it enforces id uniqueness and edge endpoint integrity but does not decide
// whether the pipeline is executable.
type Graph struct {
	nodes []node.Node
	edges []node.Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{}
}

// FromSnapshot creates a graph from stored node and edge lists. The lists are
// copied and checked with CheckIntegrity.
func FromSnapshot(nodes []node.Node, edges []node.Edge) (*Graph, error) {
	if err := CheckIntegrity(nodes, edges); err != nil {
		return nil, err
	}
	return &Graph{nodes: cloneNodes(nodes), edges: cloneEdges(edges)}, nil
}

// Nodes returns a copy of the node list.
func (g *Graph) Nodes() []node.Node {
	return cloneNodes(g.nodes)
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []node.Edge {
	return cloneEdges(g.edges)
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (node.Node, bool) {
	for _, n := range g.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return node.Node{}, false
}

// SetNodes replaces the whole node collection. Edges whose endpoints are no
// longer present are pruned, the same cascade RemoveNodes applies.
func (g *Graph) SetNodes(nodes []node.Node) error {
	if err := checkNodes(nodes); err != nil {
		return err
	}
	g.nodes = cloneNodes(nodes)
	g.edges, _ = Repair(g.nodes, g.edges)
	return nil
}

// SetEdges replaces the whole edge collection. Every edge must reference
// existing nodes and explicit edge ids must be unique.
func (g *Graph) SetEdges(edges []node.Edge) error {
	if err := checkEdges(node.Set(node.IDs(g.nodes)), edges); err != nil {
		return err
	}
	g.edges = withEdgeIDs(nil, cloneEdges(edges))
	return nil
}

// AddNode appends a single node. The id must be non-empty and unused.
func (g *Graph) AddNode(n node.Node) error {
	if n.ID == "" {
		return &StructuralError{Kind: KindEmptyID, Msg: "node ID must not be empty"}
	}
	if _, exists := g.Node(n.ID); exists {
		return duplicateID(n.ID)
	}
	g.nodes = append(g.nodes, n)
	return nil
}

// AddEdge appends a single edge after checking that both endpoints exist
// and that its id is unused. An edge without an id is given one derived from
// its endpoints. It returns the edge as stored.
func (g *Graph) AddEdge(e node.Edge) (node.Edge, error) {
	if err := checkEdges(node.Set(node.IDs(g.nodes)), []node.Edge{e}); err != nil {
		return node.Edge{}, err
	}
	taken := edgeIDs(g.edges)
	if _, ok := taken[e.ID]; ok && e.ID != "" {
		return node.Edge{}, duplicateEdgeID(e.ID)
	}
	e = withEdgeIDs(taken, []node.Edge{e})[0]
	g.edges = append(g.edges, e)
	return e, nil
}

// RemoveNodes deletes the given nodes and every edge touching them. It
// returns the ids that were actually present.
func (g *Graph) RemoveNodes(ids []string) []string {
	g.nodes, g.edges, ids = removeNodes(g.nodes, g.edges, ids)
	return ids
}

// RemoveEdges deletes the edges with the given ids and returns how many were
// removed.
func (g *Graph) RemoveEdges(ids []string) int {
	var removed int
	g.edges, removed = removeEdges(g.edges, ids)
	return removed
}

// Order returns the display linearization of the graph.
func (g *Graph) Order() []node.Node {
	return Linearize(g.nodes, g.edges)
}

// CheckIntegrity reports the first duplicate node id or dangling edge found.
func (g *Graph) CheckIntegrity() error {
	return CheckIntegrity(g.nodes, g.edges)
}

// CheckIntegrity reports the first duplicate or empty node id, then the first
// edge (in list order) referencing a node that is not in the list.
func CheckIntegrity(nodes []node.Node, edges []node.Edge) error {
	if err := checkNodes(nodes); err != nil {
		return err
	}
	return checkEdges(node.Set(node.IDs(nodes)), edges)
}

// Repair splits edges into those whose endpoints both exist and those that
// dangle. Order is preserved in both lists.
func Repair(nodes []node.Node, edges []node.Edge) (kept, dropped []node.Edge) {
	ids := node.Set(node.IDs(nodes))
	for _, e := range edges {
		_, okSource := ids[e.Source]
		_, okTarget := ids[e.Target]
		if okSource && okTarget {
			kept = append(kept, e)
		} else {
			dropped = append(dropped, e)
		}
	}
	return kept, dropped
}

// Adjacency builds a dag.Graph over the node list (in order) and every edge
// whose endpoints both exist. Dangling edges are skipped.
func Adjacency(nodes []node.Node, edges []node.Edge) *dag.Graph {
	d := dag.New()
	for _, n := range nodes {
		d.AddNode(n.ID)
	}
	for _, e := range edges {
		// Dangling edges carry no reachability.
		_ = d.AddEdge(e.Source, e.Target)
	}
	return d
}

func removeNodes(nodes []node.Node, edges []node.Edge, ids []string) ([]node.Node, []node.Edge, []string) {
	drop := node.Set(ids)
	keptNodes := nodes[:0]
	var removed []string
	for _, n := range nodes {
		if _, ok := drop[n.ID]; ok {
			removed = append(removed, n.ID)
			continue
		}
		keptNodes = append(keptNodes, n)
	}

	keptEdges := edges[:0]
	for _, e := range edges {
		if !e.Touches(drop) {
			keptEdges = append(keptEdges, e)
		}
	}
	return keptNodes, keptEdges, removed
}

func removeEdges(edges []node.Edge, ids []string) ([]node.Edge, int) {
	drop := node.Set(ids)
	kept := edges[:0]
	for _, e := range edges {
		if _, ok := drop[e.ID]; !ok {
			kept = append(kept, e)
		}
	}
	return kept, len(edges) - len(kept)
}

func checkNodes(nodes []node.Node) error {
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			return &StructuralError{Kind: KindEmptyID, Msg: "node ID must not be empty"}
		}
		if _, ok := seen[n.ID]; ok {
			return duplicateID(n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

func checkEdges(ids map[string]struct{}, edges []node.Edge) error {
	seen := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if _, ok := ids[e.Source]; !ok {
			return danglingEdge(e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return danglingEdge(e.ID, e.Target)
		}
		if e.ID == "" {
			continue
		}
		if _, ok := seen[e.ID]; ok {
			return duplicateEdgeID(e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// withEdgeIDs fills in missing edge ids in place. A derived id is
// "source->target"; when that is already used by taken or by another edge
// of the list, "#2", "#3", ... is appended.
func withEdgeIDs(taken map[string]struct{}, edges []node.Edge) []node.Edge {
	used := make(map[string]struct{}, len(taken)+len(edges))
	for id := range taken {
		used[id] = struct{}{}
	}
	for _, e := range edges {
		if e.ID != "" {
			used[e.ID] = struct{}{}
		}
	}
	for i := range edges {
		if edges[i].ID != "" {
			continue
		}
		base := fmt.Sprintf("%s->%s", edges[i].Source, edges[i].Target)
		id := base
		for n := 2; ; n++ {
			if _, ok := used[id]; !ok {
				break
			}
			id = fmt.Sprintf("%s#%d", base, n)
		}
		used[id] = struct{}{}
		edges[i].ID = id
	}
	return edges
}

func edgeIDs(edges []node.Edge) map[string]struct{} {
	ids := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if e.ID != "" {
			ids[e.ID] = struct{}{}
		}
	}
	return ids
}

func cloneNodes(nodes []node.Node) []node.Node {
	if nodes == nil {
		return nil
	}
	out := make([]node.Node, len(nodes))
	copy(out, nodes)
	return out
}

func cloneEdges(edges []node.Edge) []node.Edge {
	if edges == nil {
		return nil
	}
	out := make([]node.Edge, len(edges))
	copy(out, edges)
	return out
}
