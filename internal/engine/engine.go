package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/specialistvlad/flowgrid/internal/dispatch"
	"github.com/specialistvlad/flowgrid/internal/graph"
	"github.com/specialistvlad/flowgrid/internal/header"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/specialistvlad/flowgrid/internal/plan"
	"github.com/specialistvlad/flowgrid/internal/validator"
	"github.com/specialistvlad/flowgrid/internal/workflow"
)

var (
	// ErrNoBackend is returned by Run when no dispatcher is configured.
	ErrNoBackend = errors.New("no backend configured")
	// ErrNameTaken is returned when a workflow name is already used. It
	// wraps workflow.ErrDuplicate.
	ErrNameTaken = fmt.Errorf("%w: name already used", workflow.ErrDuplicate)
)

// Runner executes a plan on the backend. *dispatch.Dispatcher implements it.
type Runner interface {
	Dispatch(ctx context.Context, req dispatch.Request) (dispatch.Result, error)
}

// Options configure an Engine.
type Options struct {
	Logger *slog.Logger
	// Runner is optional; without it Run fails with ErrNoBackend.
	Runner Runner
	// Quoting is forwarded to the backend with every run.
	Quoting bool
	// Strict makes Plan and Run fail when path nodes have no configuration.
	Strict bool
}

// Engine is the pipeline editing and execution facade.
type Engine struct {
	logger    *slog.Logger
	runner    Runner
	quoting   bool
	strict    bool
	canvas    *graph.Graph
	dirty     bool
	workflows *workflow.Store
	configs   *nodeconfig.Registry
	headers   *header.Registry
}

// New creates an engine with empty stores and an empty canvas.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:    logger,
		runner:    opts.Runner,
		quoting:   opts.Quoting,
		strict:    opts.Strict,
		canvas:    graph.New(),
		workflows: workflow.New(workflow.WithLogger(logger)),
		configs:   nodeconfig.New(logger),
		headers:   header.New(logger),
	}
}

// SetRunner replaces the backend runner.
func (e *Engine) SetRunner(r Runner) {
	e.runner = r
}

// Workflows exposes the workflow store for read access.
func (e *Engine) Workflows() *workflow.Store {
	return e.workflows
}

// Configs exposes the configuration registry.
func (e *Engine) Configs() *nodeconfig.Registry {
	return e.configs
}

// Dirty reports whether the canvas has edits that SaveCanvas has not
// written to the current workflow.
func (e *Engine) Dirty() bool {
	return e.dirty
}

// Canvas returns copies of the buffer's nodes and edges.
func (e *Engine) Canvas() ([]node.Node, []node.Edge) {
	return e.canvas.Nodes(), e.canvas.Edges()
}

// SetNodes replaces the canvas nodes. Nodes that disappear lose their edges.
// Their configuration and header stay until the removal is saved.
func (e *Engine) SetNodes(nodes []node.Node) error {
	if err := e.canvas.SetNodes(nodes); err != nil {
		return err
	}
	e.dirty = true
	return nil
}

// SetEdges replaces the canvas edges.
func (e *Engine) SetEdges(edges []node.Edge) error {
	if err := e.canvas.SetEdges(edges); err != nil {
		return err
	}
	e.dirty = true
	return nil
}

// AddNode appends a node to the canvas and to the current workflow.
func (e *Engine) AddNode(n node.Node) error {
	if e.workflows.CurrentID() == "" {
		return workflow.ErrNoSelection
	}
	if err := e.canvas.AddNode(n); err != nil {
		return err
	}
	e.syncStore(e.workflows.AddNode(n))
	return nil
}

// AddEdge appends an edge to the canvas and to the current workflow and
// returns it with its assigned id.
func (e *Engine) AddEdge(edge node.Edge) (node.Edge, error) {
	if e.workflows.CurrentID() == "" {
		return node.Edge{}, workflow.ErrNoSelection
	}
	stored, err := e.canvas.AddEdge(edge)
	if err != nil {
		return node.Edge{}, err
	}
	e.syncStore(e.workflows.AddEdge(stored))
	return stored, nil
}

// RemoveNodes deletes nodes from the canvas and the current workflow,
// together with their edges. Configuration records and headers go too
// unless another workflow still holds a node with the same id. It returns
// the ids removed from the canvas.
func (e *Engine) RemoveNodes(ids []string) []string {
	removed := e.canvas.RemoveNodes(ids)
	if e.workflows.CurrentID() != "" {
		_, err := e.workflows.RemoveNodes(ids)
		e.syncStore(err)
	}
	e.pruneNodeState(ids)
	return removed
}

// RemoveEdges deletes edges from the canvas and the current workflow.
func (e *Engine) RemoveEdges(ids []string) int {
	removed := e.canvas.RemoveEdges(ids)
	if e.workflows.CurrentID() != "" {
		_, err := e.workflows.RemoveEdges(ids)
		e.syncStore(err)
	}
	return removed
}

// syncStore records a failed write-through to the stored workflow. The
// buffer stays authoritative and is marked dirty so the next save
// reconciles the two.
func (e *Engine) syncStore(err error) {
	if err == nil {
		return
	}
	e.logger.Debug("Stored workflow diverged from the canvas.", "error", err)
	e.dirty = true
}

// pruneNodeState drops the configuration records and header of every
// candidate id that neither the canvas nor any stored workflow holds.
// Records are keyed by node id only, so workflows reusing an id share them.
func (e *Engine) pruneNodeState(candidates []string) {
	if len(candidates) == 0 {
		return
	}
	held := node.Set(node.IDs(e.canvas.Nodes()))
	for _, w := range e.workflows.List() {
		for _, n := range w.Nodes {
			held[n.ID] = struct{}{}
		}
	}
	for _, id := range candidates {
		if _, ok := held[id]; !ok {
			e.forgetNode(id)
		}
	}
}

func (e *Engine) forgetNode(id string) {
	configs := e.configs.RemoveNode(id)
	hadHeader := e.headers.Remove(id)
	if configs > 0 || hadHeader {
		e.logger.Debug("Removed node state.", "node", id, "configs", configs, "header", hadHeader)
	}
}

// SetConfig stores a node's configuration record and returns it as stored.
func (e *Engine) SetConfig(cfg nodeconfig.Config) (nodeconfig.Config, error) {
	if err := e.configs.Upsert(cfg); err != nil {
		return nil, err
	}
	return nodeconfig.WithDefaults(cfg), nil
}

// SetHeader assigns a header label to a node and returns the stored label.
func (e *Engine) SetHeader(nodeID, label string) string {
	return e.headers.Set(nodeID, label)
}

// Headers returns the header entries.
func (e *Engine) Headers() []header.Entry {
	return e.headers.Entries()
}

// Labels returns the header labels currently in use.
func (e *Engine) Labels() []string {
	return e.headers.Labels()
}

// Validate checks whether the canvas is an executable pipeline.
func (e *Engine) Validate() validator.Result {
	return validator.Validate(e.canvas.Nodes(), e.canvas.Edges())
}

// Order returns the display linearization of the canvas.
func (e *Engine) Order() []node.Node {
	return e.canvas.Order()
}

// Plan validates the canvas and resolves the operation list. An invalid
// canvas yields a *validator.Error.
func (e *Engine) Plan(ctx context.Context) (plan.Plan, error) {
	result := e.Validate()
	if err := result.Err(); err != nil {
		return plan.Plan{}, err
	}
	e.reportIgnored(result.Path)
	p := plan.Resolve(ctx, result.Path, e.configs, e.headers)
	if e.strict {
		if err := p.Strict(); err != nil {
			return p, err
		}
	}
	return p, nil
}

// reportIgnored logs canvas content that a valid pipeline leaves out of the
// plan: cycles and nodes the start node cannot reach.
func (e *Engine) reportIgnored(path []node.Node) {
	nodes, edges := e.canvas.Nodes(), e.canvas.Edges()
	adj := graph.Adjacency(nodes, edges)
	if err := adj.DetectCycles(); err != nil {
		e.logger.Warn("Canvas contains a cycle, only the shortest start to end path is planned.", "error", err)
	}
	reachable := adj.Reachable(path[0].ID)
	var unreachable []string
	for _, n := range nodes {
		if !reachable[n.ID] {
			unreachable = append(unreachable, n.ID)
		}
	}
	if len(unreachable) > 0 {
		e.logger.Debug("Nodes unreachable from start are ignored.", "nodes", unreachable)
	}
}

// Run builds the plan for the canvas and hands it to the backend together
// with the input file path.
func (e *Engine) Run(ctx context.Context, path string) (dispatch.Result, plan.Plan, error) {
	if strings.TrimSpace(path) == "" {
		return dispatch.Result{}, plan.Plan{}, errors.New("input path must not be empty")
	}
	p, err := e.Plan(ctx)
	if err != nil {
		return dispatch.Result{}, p, err
	}
	if e.runner == nil {
		return dispatch.Result{}, p, ErrNoBackend
	}
	res, err := e.runner.Dispatch(ctx, dispatch.Request{
		Path:       path,
		Operations: p.Operations,
		Quoting:    e.quoting,
	})
	if err != nil {
		return dispatch.Result{}, p, fmt.Errorf("run failed: %w", err)
	}
	return res, p, nil
}
