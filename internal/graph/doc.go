// Package graph holds the canonical node and edge buffer edited by the
// canvas, together with the display linearizer.
//
// # Mutation model
//
// The canvas either replaces a whole collection (SetNodes, SetEdges) or issues
// single-item mutations (AddNode, AddEdge, RemoveNodes, RemoveEdges). Every
// mutation preserves two invariants:
//
//   - node ids are unique within the graph;
//   - every edge's source and target name a node in the same graph.
//
// Removing a node cascades to every edge that touches it, so no mutation can
// leave a dangling edge behind. Data that did not come through these
// mutations (imports, stored snapshots) can be checked with CheckIntegrity
// and repaired with Repair.
//
// # Linearization
//
// Linearize produces a best-effort display ordering by walking depth-first
// from every source node. It never rejects a graph; deciding whether a graph
// is executable is the job of the validator package.
package graph
