// Package dag is a small directed-graph utility shared by the canvas
// linearizer and the execution path validator. It keeps successor lists in
// edge insertion order so that every traversal (DFS display order, BFS path
// search) is deterministic for a given node and edge list.
package dag
