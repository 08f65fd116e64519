// Package engine composes the graph buffer, the workflow store, the
// configuration and header registries, validation, plan resolution and the
// backend dispatcher behind one facade.
//
// The engine owns the canvas buffer of the current workflow. Edits through
// SetNodes and SetEdges stay in the buffer until SaveCanvas; single-node and
// single-edge additions and removals are applied to the buffer and to the
// stored workflow at once. Configuration records and header labels are
// keyed by node id across all workflows; a committed node removal drops them
// once no stored workflow and not the canvas holds that id.
//
// The engine is not safe for concurrent use; servers serialize access.
package engine
