package nodeconfig

import (
	"fmt"
	"log/slog"

	"github.com/specialistvlad/flowgrid/internal/node"
)

// typedStore is the ordered collection for one node type.
type typedStore struct {
	records []Config
	index   map[string]int // node id -> position in records
}

func newTypedStore() *typedStore {
	return &typedStore{index: make(map[string]int)}
}

// Registry holds at most one configuration record per (type, id).
//
// Registry is not safe for concurrent use.
type Registry struct {
	logger *slog.Logger
	stores map[node.Type]*typedStore
}

// New creates an empty registry with a store for every configurable type.
// A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger, stores: make(map[node.Type]*typedStore)}
	for _, t := range Types() {
		r.stores[t] = newTypedStore()
	}
	return r
}

// Upsert stores a record. An existing record for the same (type, id) is
// replaced in place, keeping its position; otherwise the record is appended.
func (r *Registry) Upsert(cfg Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration record is nil")
	}
	if cfg.NodeID() == "" {
		return fmt.Errorf("%w (type %s)", ErrMissingID, cfg.NodeType())
	}
	s, ok := r.stores[cfg.NodeType()]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, cfg.NodeType())
	}
	cfg = WithDefaults(cfg)

	if i, exists := s.index[cfg.NodeID()]; exists {
		s.records[i] = cfg
		r.logger.Debug("Configuration replaced.", "type", cfg.NodeType(), "node", cfg.NodeID())
		return nil
	}
	s.index[cfg.NodeID()] = len(s.records)
	s.records = append(s.records, cfg)
	r.logger.Debug("Configuration added.", "type", cfg.NodeType(), "node", cfg.NodeID())
	return nil
}

// Get looks up the record for a node of the given type.
func (r *Registry) Get(t node.Type, id string) (Config, bool) {
	s, ok := r.stores[t]
	if !ok {
		return nil, false
	}
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.records[i], true
}

// Records returns a copy of the records of one type, in insertion order.
func (r *Registry) Records(t node.Type) []Config {
	s, ok := r.stores[t]
	if !ok {
		return nil
	}
	out := make([]Config, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the total number of records across all types.
func (r *Registry) Len() int {
	var n int
	for _, s := range r.stores {
		n += len(s.records)
	}
	return n
}

// RemoveNode drops every record owned by the given node id, whatever its
// type, and returns how many were removed. It is driven by node removal so
// that deleted nodes do not leave stale configuration behind.
func (r *Registry) RemoveNode(id string) int {
	var removed int
	for _, t := range Types() {
		if r.stores[t].remove(id) {
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("Configuration removed.", "node", id, "records", removed)
	}
	return removed
}

// Snapshot returns every store's records keyed by store key.
func (r *Registry) Snapshot() map[string][]Config {
	out := make(map[string][]Config, len(r.stores))
	for _, t := range Types() {
		key, _ := StoreKey(t)
		out[key] = r.Records(t)
	}
	return out
}

// Replace discards the records of one type and loads the given ones. Later
// duplicates of the same id replace earlier ones, as with Upsert.
func (r *Registry) Replace(t node.Type, records []Config) error {
	if _, ok := r.stores[t]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	for _, cfg := range records {
		if cfg == nil || cfg.NodeType() != t {
			return fmt.Errorf("record of type %v cannot be stored under %s", typeOf(cfg), t)
		}
		if cfg.NodeID() == "" {
			return fmt.Errorf("%w (type %s)", ErrMissingID, t)
		}
	}

	r.stores[t] = newTypedStore()
	for _, cfg := range records {
		if err := r.Upsert(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (s *typedStore) remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.records); j++ {
		s.index[s.records[j].NodeID()] = j
	}
	return true
}

func typeOf(cfg Config) any {
	if cfg == nil {
		return nil
	}
	return cfg.NodeType()
}
