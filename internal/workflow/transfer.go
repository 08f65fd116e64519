package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/specialistvlad/flowgrid/internal/graph"
)

// Export returns the JSON document of one workflow.
func (s *Store) Export(id string) ([]byte, error) {
	w, err := s.GetWorkflowData(id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow %q: %w", id, err)
	}
	return data, nil
}

// Import adds a workflow from its JSON document and selects it. The
// document must carry an id and a nodes array; the id must not already be
// in use; the rest follows Insert.
func (s *Store) Import(data []byte) (Workflow, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Workflow{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var id string
	if raw, ok := probe["id"]; !ok || json.Unmarshal(raw, &id) != nil || strings.TrimSpace(id) == "" {
		return Workflow{}, fmt.Errorf("%w: missing id", ErrInvalidDocument)
	}
	if raw, ok := probe["nodes"]; !ok || !isArray(raw) {
		return Workflow{}, fmt.Errorf("%w: missing nodes array", ErrInvalidDocument)
	}

	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return Workflow{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return s.Insert(w)
}

// Insert adds a workflow built elsewhere, such as a loaded definition, and
// selects it. The id must be set and unused and node ids must be unique.
// Dangling edges are dropped. Missing timestamps are set to now.
func (s *Store) Insert(w Workflow) (Workflow, error) {
	if strings.TrimSpace(w.ID) == "" {
		return Workflow{}, fmt.Errorf("%w: missing id", ErrInvalidDocument)
	}
	if s.find(w.ID) != nil {
		return Workflow{}, fmt.Errorf("%w: %q", ErrDuplicate, w.ID)
	}
	w = w.clone()

	now := s.now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = now
	}
	w.Name = strings.TrimSpace(w.Name)
	s.repair(&w)
	if err := graph.CheckIntegrity(w.Nodes, w.Edges); err != nil {
		return Workflow{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	s.list = append(s.list, &w)
	s.currentID = w.ID
	s.logger.Debug("Workflow added.", "id", w.ID, "name", w.Name, "nodes", len(w.Nodes))
	return w.clone(), nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
