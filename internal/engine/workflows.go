package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/flowgrid/internal/config"
	"github.com/specialistvlad/flowgrid/internal/graph"
	"github.com/specialistvlad/flowgrid/internal/header"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/specialistvlad/flowgrid/internal/persist"
	"github.com/specialistvlad/flowgrid/internal/workflow"
)

// CreateWorkflow adds an empty workflow, selects it and clears the canvas.
// Names are trimmed and must be unique.
func (e *Engine) CreateWorkflow(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", workflow.ErrEmptyName
	}
	if e.workflows.NameExists(name) {
		return "", fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	e.warnDiscard("create")
	id := e.workflows.Create(name)
	e.loadCurrent()
	return id, nil
}

// SwitchWorkflow selects another workflow and loads it into the canvas.
// Unsaved canvas edits are discarded.
func (e *Engine) SwitchWorkflow(id string) (workflow.Workflow, error) {
	if _, err := e.workflows.GetWorkflowData(id); err != nil {
		return workflow.Workflow{}, err
	}
	e.warnDiscard("switch")
	w, err := e.workflows.SwitchTo(id)
	if err != nil {
		return workflow.Workflow{}, err
	}
	e.loadCurrent()
	return w, nil
}

// SaveCanvas writes the canvas to the current workflow. Nodes the save
// removes lose their configuration and header, as with RemoveNodes.
func (e *Engine) SaveCanvas() error {
	var before []string
	if w, ok := e.workflows.Current(); ok {
		before = node.IDs(w.Nodes)
	}
	if err := e.workflows.SaveCurrent(e.canvas.Nodes(), e.canvas.Edges()); err != nil {
		return err
	}
	e.dirty = false
	e.pruneNodeState(before)
	return nil
}

// RemoveWorkflow deletes a workflow. When the selection moves, the canvas is
// reloaded from the newly selected workflow. Configuration records and
// headers of its nodes are dropped unless another workflow holds the same
// node ids.
func (e *Engine) RemoveWorkflow(id string) error {
	w, err := e.workflows.GetWorkflowData(id)
	if err != nil {
		return err
	}
	before := e.workflows.CurrentID()
	if err := e.workflows.Remove(id); err != nil {
		return err
	}
	if e.workflows.CurrentID() != before {
		e.warnDiscard("remove")
		e.loadCurrent()
	}
	e.pruneNodeState(node.IDs(w.Nodes))
	return nil
}

// RenameWorkflow renames a workflow. Names must stay unique.
func (e *Engine) RenameWorkflow(id, name string) error {
	w, err := e.workflows.GetWorkflowData(id)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name != w.Name && e.workflows.NameExists(name) {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	return e.workflows.Rename(id, name)
}

// ImportWorkflow adds a workflow from its JSON document, selects it and
// loads it into the canvas.
func (e *Engine) ImportWorkflow(data []byte) (workflow.Workflow, error) {
	w, err := e.workflows.Import(data)
	if err != nil {
		return workflow.Workflow{}, err
	}
	e.warnDiscard("import")
	e.loadCurrent()
	return w, nil
}

// ExportWorkflow returns the JSON document of a workflow.
func (e *Engine) ExportWorkflow(id string) ([]byte, error) {
	return e.workflows.Export(id)
}

// Definition returns a workflow together with the configuration records
// and headers of its nodes.
func (e *Engine) Definition(id string) (*config.Workflow, error) {
	w, err := e.workflows.GetWorkflowData(id)
	if err != nil {
		return nil, err
	}
	def := &config.Workflow{ID: w.ID, Name: w.Name, Nodes: w.Nodes, Edges: w.Edges}
	for _, n := range w.Nodes {
		if cfg, ok := e.configs.Get(n.Type, n.ID); ok {
			def.Configs = append(def.Configs, cfg)
		}
		if label, ok := e.headers.Label(n.ID); ok {
			def.Headers = append(def.Headers, header.Entry{Label: label, Value: n.ID})
		}
	}
	return def, nil
}

// LoadDefinition adds a workflow from a definition file together with its
// configuration records and headers, selects it and loads the canvas.
func (e *Engine) LoadDefinition(def *config.Workflow) (workflow.Workflow, error) {
	for _, cfg := range def.Configs {
		if !hasNode(def, cfg.NodeID()) {
			return workflow.Workflow{}, fmt.Errorf("configuration for unknown node %q", cfg.NodeID())
		}
	}
	w, err := e.workflows.Insert(workflow.Workflow{
		ID:    def.ID,
		Name:  def.Name,
		Nodes: def.Nodes,
		Edges: def.Edges,
	})
	if err != nil {
		return workflow.Workflow{}, err
	}
	for _, cfg := range def.Configs {
		if err := e.configs.Upsert(cfg); err != nil {
			return workflow.Workflow{}, err
		}
	}
	for _, h := range def.Headers {
		e.headers.Set(h.Value, h.Label)
	}
	e.warnDiscard("load")
	e.loadCurrent()
	e.logger.Debug("Definition loaded.", "workflow", w.ID, "source", def.Source, "configs", len(def.Configs))
	return w, nil
}

// Snapshot returns the persistable state. The canvas buffer is not part of
// it; unsaved edits must be saved first.
func (e *Engine) Snapshot() persist.Snapshot {
	return persist.Snapshot{
		Workflows: e.workflows.State(),
		Headers:   e.headers.Entries(),
		Configs:   e.configs.Snapshot(),
	}
}

// Restore replaces all stores with a persisted state and loads the current
// workflow into the canvas.
func (e *Engine) Restore(s persist.Snapshot) error {
	if err := e.workflows.Restore(s.Workflows); err != nil {
		return err
	}
	if err := e.headers.Restore(s.Headers); err != nil {
		return err
	}
	for _, t := range nodeconfig.Types() {
		key, _ := nodeconfig.StoreKey(t)
		if err := e.configs.Replace(t, s.Configs[key]); err != nil {
			return err
		}
	}
	e.loadCurrent()
	return nil
}

// Load restores the engine from a state directory.
func (e *Engine) Load(ctx context.Context, dir *persist.Dir) error {
	s, err := dir.Load(ctx)
	if err != nil {
		return err
	}
	return e.Restore(s)
}

// Save writes the engine's stores to a state directory.
func (e *Engine) Save(ctx context.Context, dir *persist.Dir) error {
	return dir.Save(ctx, e.Snapshot())
}

// loadCurrent replaces the canvas with the current workflow's snapshot, or
// empties it when nothing is selected.
func (e *Engine) loadCurrent() {
	e.dirty = false
	w, ok := e.workflows.Current()
	if !ok {
		e.canvas = graph.New()
		return
	}
	g, err := graph.FromSnapshot(w.Nodes, w.Edges)
	if err != nil {
		// The store only holds checked snapshots.
		e.logger.Error("Stored workflow failed integrity check.", "workflow", w.ID, "error", err)
		g = graph.New()
	}
	e.canvas = g
}

func (e *Engine) warnDiscard(action string) {
	if e.dirty {
		e.logger.Warn("Unsaved canvas edits discarded.", "action", action, "workflow", e.workflows.CurrentID())
	}
}

func hasNode(def *config.Workflow, id string) bool {
	for _, n := range def.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}
