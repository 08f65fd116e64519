// Package header assigns output field names to transformation nodes.
//
// Every node may publish the column it produces under a label. Labels are
// unique across the registry: a label already held by another node is
// suffixed with "_1", "_2", ... until it is free. Entries keep their
// insertion order so that the persisted list is stable.
package header

import (
	"fmt"
	"log/slog"
	"strings"
)

// Entry binds a label to the node that owns it. Value is the node id.
type Entry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Registry is the ordered set of header entries, one per node.
//
// Registry is not safe for concurrent use.
type Registry struct {
	logger  *slog.Logger
	entries []Entry
}

// New creates an empty registry. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Set assigns label to the node and returns the label actually stored.
// A blank label removes the node's entry and returns "". If another node
// already holds the trimmed label, the first free "<label>_N" is used.
// Setting the label a node already holds is a no-op.
func (r *Registry) Set(nodeID, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		r.Remove(nodeID)
		return ""
	}

	unique := r.uniqueLabel(nodeID, label)
	if i := r.indexOf(nodeID); i >= 0 {
		if r.entries[i].Label != unique {
			r.logger.Debug("Header relabelled.", "node", nodeID, "from", r.entries[i].Label, "to", unique)
		}
		r.entries[i].Label = unique
		return unique
	}
	r.entries = append(r.entries, Entry{Label: unique, Value: nodeID})
	r.logger.Debug("Header added.", "node", nodeID, "label", unique)
	return unique
}

// Remove drops the node's entry. It reports whether an entry existed.
func (r *Registry) Remove(nodeID string) bool {
	i := r.indexOf(nodeID)
	if i < 0 {
		return false
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	return true
}

// Label returns the node's label, if any.
func (r *Registry) Label(nodeID string) (string, bool) {
	if i := r.indexOf(nodeID); i >= 0 {
		return r.entries[i].Label, true
	}
	return "", false
}

// Labels returns every label in insertion order.
func (r *Registry) Labels() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Label
	}
	return out
}

// Entries returns a copy of the entries in insertion order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Restore replaces the registry with persisted entries. Entries must have
// a node id and a label; later entries for the same node win, and label
// collisions are resolved the same way Set resolves them.
func (r *Registry) Restore(entries []Entry) error {
	for i, e := range entries {
		if e.Value == "" {
			return fmt.Errorf("header entry %d has no node id", i)
		}
	}
	r.entries = nil
	for _, e := range entries {
		r.Set(e.Value, e.Label)
	}
	return nil
}

func (r *Registry) indexOf(nodeID string) int {
	for i, e := range r.entries {
		if e.Value == nodeID {
			return i
		}
	}
	return -1
}

func (r *Registry) heldByOther(nodeID, label string) bool {
	for _, e := range r.entries {
		if e.Label == label && e.Value != nodeID {
			return true
		}
	}
	return false
}

func (r *Registry) uniqueLabel(nodeID, label string) string {
	if !r.heldByOther(nodeID, label) {
		return label
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", label, n)
		if !r.heldByOther(nodeID, candidate) {
			return candidate
		}
	}
}
