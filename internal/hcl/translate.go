package hcl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/flowgrid/internal/config"
	"github.com/specialistvlad/flowgrid/internal/ctxlog"
	"github.com/specialistvlad/flowgrid/internal/header"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var positionType = cty.Object(map[string]cty.Type{
	"x": cty.Number,
	"y": cty.Number,
})

type position struct {
	X float64 `cty:"x"`
	Y float64 `cty:"y"`
}

// translateWorkflow converts a workflow block into the agnostic model.
func (l *Loader) translateWorkflow(ctx context.Context, w *Workflow) (*config.Workflow, error) {
	ctx, logger := ctxlog.With(ctx, "workflow", w.ID)
	logger.Debug("Translating HCL workflow to internal config model.")

	name := strings.TrimSpace(w.Name)
	if name == "" {
		name = w.ID
	}
	def := &config.Workflow{
		ID:    w.ID,
		Name:  name,
		Nodes: make([]node.Node, 0, len(w.Nodes)),
		Edges: make([]node.Edge, 0, len(w.Edges)),
	}

	for _, n := range w.Nodes {
		translated, cfg, err := l.translateNode(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		def.Nodes = append(def.Nodes, translated)
		if cfg != nil {
			def.Configs = append(def.Configs, cfg)
		}
		if out := strings.TrimSpace(n.Output); out != "" {
			def.Headers = append(def.Headers, header.Entry{Label: out, Value: n.ID})
		}
	}
	for _, e := range w.Edges {
		def.Edges = append(def.Edges, node.Edge{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	return def, nil
}

func (l *Loader) translateNode(ctx context.Context, n *Node) (node.Node, nodeconfig.Config, error) {
	typ := node.ParseType(n.Type)
	out := node.Node{ID: n.ID, Type: typ, Label: n.Label}

	if isExprDefined(ctx, n.Position, "position") {
		pos, err := decodePosition(n.Position)
		if err != nil {
			return node.Node{}, nil, err
		}
		out.Position = pos
	}

	if n.Config == nil {
		return out, nil, nil
	}
	if typ.IsSentinel() {
		return node.Node{}, nil, fmt.Errorf("%s nodes take no config block", typ)
	}
	attrs, err := decodeAttributes(n.Config.Body)
	if err != nil {
		return node.Node{}, nil, err
	}
	attrs["id"] = n.ID
	raw, err := json.Marshal(attrs)
	if err != nil {
		return node.Node{}, nil, fmt.Errorf("failed to encode config: %w", err)
	}
	cfg, err := nodeconfig.Decode(typ, raw)
	if err != nil {
		return node.Node{}, nil, err
	}
	return out, cfg, nil
}

// decodeAttributes evaluates every attribute of a config block as a string.
func decodeAttributes(body hcl.Body) (map[string]string, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		if val.IsNull() {
			continue
		}
		val, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		var s string
		if err := gocty.FromCtyValue(val, &s); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
}

func decodePosition(expr hcl.Expression) (*node.Position, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	val, err := convert.Convert(val, positionType)
	if err != nil {
		return nil, fmt.Errorf("position must be an object with x and y: %w", err)
	}
	var p position
	if err := gocty.FromCtyValue(val, &p); err != nil {
		return nil, fmt.Errorf("position: %w", err)
	}
	return &node.Position{X: p.X, Y: p.Y}, nil
}

// isExprDefined reports whether an optional attribute was written in the
// source. gohcl fills omitted optional expressions with a zero-width
// placeholder, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}
