// Package workflow keeps the named, persisted workflows and tracks which one
// is currently selected.
//
// # State
//
// The store holds an ordered list of workflows and an optional current id.
// Creating or importing a workflow selects it. Removing the current workflow
// selects the first remaining one, or nothing when the list becomes empty.
//
// # Mutation
//
// Node and edge mutations apply to the current workflow's stored snapshot.
// The editing buffer itself lives outside the store; SaveCurrent writes it
// back. Switching never saves, so unsaved buffer edits are lost.
//
// The store is not safe for concurrent use.
package workflow

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/flowgrid/internal/graph"
	"github.com/specialistvlad/flowgrid/internal/node"
)

// Workflow is one named graph snapshot.
type Workflow struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Nodes     []node.Node `json:"nodes"`
	Edges     []node.Edge `json:"edges"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// State is the persisted form of the store. CurrentID is nil when no
// workflow is selected.
type State struct {
	CurrentID *string    `json:"currentId"`
	List      []Workflow `json:"list"`
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the random UUID generator, mainly for tests.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Store is the workflow collection plus the current selection.
type Store struct {
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	currentID string
	list      []*Workflow
}

// New creates an empty store with nothing selected.
func New(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds an empty workflow, selects it and returns its id. The name is
// trimmed; uniqueness is the caller's concern (see NameExists).
func (s *Store) Create(name string) string {
	now := s.now().UTC()
	w := &Workflow{
		ID:        s.newID(),
		Name:      strings.TrimSpace(name),
		Nodes:     []node.Node{},
		Edges:     []node.Edge{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.list = append(s.list, w)
	s.currentID = w.ID
	s.logger.Debug("Workflow created.", "id", w.ID, "name", w.Name)
	return w.ID
}

// Current returns a copy of the selected workflow.
func (s *Store) Current() (Workflow, bool) {
	w := s.find(s.currentID)
	if w == nil {
		return Workflow{}, false
	}
	return w.clone(), true
}

// CurrentID returns the selected id, or "" when nothing is selected.
func (s *Store) CurrentID() string {
	return s.currentID
}

// List returns copies of all workflows in creation order.
func (s *Store) List() []Workflow {
	out := make([]Workflow, len(s.list))
	for i, w := range s.list {
		out[i] = w.clone()
	}
	return out
}

// NameExists reports whether a workflow already uses the trimmed name.
func (s *Store) NameExists(name string) bool {
	name = strings.TrimSpace(name)
	for _, w := range s.list {
		if w.Name == name {
			return true
		}
	}
	return false
}

// AddNode appends a node to the current workflow.
func (s *Store) AddNode(n node.Node) error {
	return s.mutateCurrent(func(g *graph.Graph) error { return g.AddNode(n) })
}

// AddEdge appends an edge to the current workflow. Both endpoints must
// exist.
func (s *Store) AddEdge(e node.Edge) error {
	return s.mutateCurrent(func(g *graph.Graph) error {
		_, err := g.AddEdge(e)
		return err
	})
}

// RemoveNodes deletes nodes, and every edge touching them, from the current
// workflow. It returns the ids that were present.
func (s *Store) RemoveNodes(ids []string) ([]string, error) {
	var removed []string
	err := s.mutateCurrent(func(g *graph.Graph) error {
		removed = g.RemoveNodes(ids)
		return nil
	})
	return removed, err
}

// RemoveEdges deletes edges from the current workflow and returns how many
// were removed.
func (s *Store) RemoveEdges(ids []string) (int, error) {
	var removed int
	err := s.mutateCurrent(func(g *graph.Graph) error {
		removed = g.RemoveEdges(ids)
		return nil
	})
	return removed, err
}

// SaveCurrent replaces the current workflow's nodes and edges with the
// given snapshot and bumps its update time. Snapshots with duplicate node
// ids or dangling edges are rejected.
func (s *Store) SaveCurrent(nodes []node.Node, edges []node.Edge) error {
	w := s.find(s.currentID)
	if w == nil {
		return ErrNoSelection
	}
	g, err := graph.FromSnapshot(nodes, edges)
	if err != nil {
		return fmt.Errorf("failed to save workflow %q: %w", w.ID, err)
	}
	w.Nodes, w.Edges = nonNil(g.Nodes(), g.Edges())
	w.UpdatedAt = s.now().UTC()
	s.logger.Debug("Workflow saved.", "id", w.ID, "nodes", len(w.Nodes), "edges", len(w.Edges))
	return nil
}

// SwitchTo selects another workflow and returns a copy of it.
func (s *Store) SwitchTo(id string) (Workflow, error) {
	w := s.find(id)
	if w == nil {
		return Workflow{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s.currentID = id
	s.logger.Debug("Workflow selected.", "id", id)
	return w.clone(), nil
}

// Remove deletes a workflow. When it was selected, the first remaining
// workflow is selected, or nothing if the list is now empty.
func (s *Store) Remove(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s.list = append(s.list[:i], s.list[i+1:]...)
	if s.currentID == id {
		s.currentID = ""
		if len(s.list) > 0 {
			s.currentID = s.list[0].ID
		}
	}
	s.logger.Debug("Workflow removed.", "id", id, "current", s.currentID)
	return nil
}

// GetWorkflowData returns a copy of one workflow.
func (s *Store) GetWorkflowData(id string) (Workflow, error) {
	w := s.find(id)
	if w == nil {
		return Workflow{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return w.clone(), nil
}

// Rename changes a workflow's name. The name is trimmed and must not be
// empty.
func (s *Store) Rename(id, name string) error {
	w := s.find(id)
	if w == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	w.Name = name
	w.UpdatedAt = s.now().UTC()
	return nil
}

// State returns the persisted form of the store.
func (s *Store) State() State {
	st := State{List: s.List()}
	if s.currentID != "" {
		id := s.currentID
		st.CurrentID = &id
	}
	return st
}

// Restore replaces the store's content with a persisted state. Workflow ids
// must be unique and non-empty, as must node ids within a workflow.
// Dangling edges are dropped. A current id that names no workflow falls
// back to the first one.
func (s *Store) Restore(st State) error {
	seen := make(map[string]struct{}, len(st.List))
	list := make([]*Workflow, 0, len(st.List))
	for i := range st.List {
		w := st.List[i].clone()
		if w.ID == "" {
			return fmt.Errorf("%w: workflow %d has no id", ErrInvalidDocument, i)
		}
		if _, dup := seen[w.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicate, w.ID)
		}
		seen[w.ID] = struct{}{}
		s.repair(&w)
		if err := graph.CheckIntegrity(w.Nodes, w.Edges); err != nil {
			return fmt.Errorf("%w: workflow %q: %v", ErrInvalidDocument, w.ID, err)
		}
		list = append(list, &w)
	}

	s.list = list
	s.currentID = ""
	if st.CurrentID != nil {
		if _, ok := seen[*st.CurrentID]; ok {
			s.currentID = *st.CurrentID
		}
	}
	if s.currentID == "" && len(s.list) > 0 {
		if st.CurrentID != nil {
			s.logger.Warn("Selected workflow no longer exists, selecting the first one.", "id", *st.CurrentID)
		}
		s.currentID = s.list[0].ID
	}
	return nil
}

func (s *Store) mutateCurrent(fn func(g *graph.Graph) error) error {
	w := s.find(s.currentID)
	if w == nil {
		return ErrNoSelection
	}
	g, err := graph.FromSnapshot(w.Nodes, w.Edges)
	if err != nil {
		return fmt.Errorf("stored workflow %q is corrupt: %w", w.ID, err)
	}
	if err := fn(g); err != nil {
		return err
	}
	w.Nodes, w.Edges = nonNil(g.Nodes(), g.Edges())
	w.UpdatedAt = s.now().UTC()
	return nil
}

// repair drops dangling edges from data that was not produced by this store.
func (s *Store) repair(w *Workflow) {
	kept, dropped := graph.Repair(w.Nodes, w.Edges)
	if len(dropped) > 0 {
		s.logger.Warn("Dropped edges referencing missing nodes.", "workflow", w.ID, "edges", len(dropped))
	}
	w.Nodes, w.Edges = nonNil(w.Nodes, kept)
}

func (s *Store) find(id string) *Workflow {
	if i := s.indexOf(id); i >= 0 {
		return s.list[i]
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, w := range s.list {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func (w *Workflow) clone() Workflow {
	c := *w
	c.Nodes = append([]node.Node{}, w.Nodes...)
	c.Edges = append([]node.Edge{}, w.Edges...)
	return c
}

// nonNil keeps empty collections serialized as [] rather than null.
func nonNil(nodes []node.Node, edges []node.Edge) ([]node.Node, []node.Edge) {
	if nodes == nil {
		nodes = []node.Node{}
	}
	if edges == nil {
		edges = []node.Edge{}
	}
	return nodes, edges
}
