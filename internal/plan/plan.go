// Package plan turns a validated execution path into the ordered list of
// operations sent to the backend.
package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/flowgrid/internal/ctxlog"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
)

// ErrUnresolved is returned by Plan.Strict when path nodes had no
// configuration.
var ErrUnresolved = errors.New("nodes without configuration")

// Operation is the backend wire record for one transformation step. Type is
// the node type the record came from; Op is the configured operation name,
// which defaults to the type but may be set to anything.
type Operation struct {
	ID          string    `json:"id"`
	Type        node.Type `json:"type"`
	Op          string    `json:"op"`
	Mode        string    `json:"mode,omitempty"`
	Logic       string    `json:"logic,omitempty"`
	Column      string    `json:"column,omitempty"`
	Value       string    `json:"value,omitempty"`
	Comparand   string    `json:"comparand,omitempty"`
	Replacement string    `json:"replacement,omitempty"`
	Offset      string    `json:"offset,omitempty"`
	Length      string    `json:"length,omitempty"`
	Output      string    `json:"output,omitempty"`
}

// Unresolved describes a path node that was left out of the plan.
type Unresolved struct {
	ID   string    `json:"id"`
	Type node.Type `json:"type"`
}

// Plan is the resolved operation list, in path order.
type Plan struct {
	Operations []Operation  `json:"operations"`
	Unresolved []Unresolved `json:"unresolved,omitempty"`
}

// Source looks up the configuration record of a node.
type Source interface {
	Get(t node.Type, id string) (nodeconfig.Config, bool)
}

// Labels looks up the header label a node publishes.
type Labels interface {
	Label(nodeID string) (string, bool)
}

// Strict returns an error wrapping ErrUnresolved if any node was dropped.
func (p Plan) Strict() error {
	if len(p.Unresolved) == 0 {
		return nil
	}
	ids := make([]string, len(p.Unresolved))
	for i, u := range p.Unresolved {
		ids[i] = u.ID
	}
	return fmt.Errorf("%w: %s", ErrUnresolved, strings.Join(ids, ", "))
}

// Resolve maps every non-sentinel node of path to its configuration. Start
// and End are skipped. Nodes with no record, including nodes of types that
// carry no configuration, are left out and listed in Plan.Unresolved; each
// drop is logged at WARN. headers may be nil.
func Resolve(ctx context.Context, path []node.Node, source Source, headers Labels) Plan {
	logger := ctxlog.FromContext(ctx)
	p := Plan{Operations: make([]Operation, 0, len(path))}
	for _, n := range path {
		if n.Type.IsSentinel() {
			continue
		}
		cfg, ok := source.Get(n.Type, n.ID)
		if !ok {
			logger.Warn("Node has no configuration, skipping.", "node", n.ID, "type", n.Type)
			p.Unresolved = append(p.Unresolved, Unresolved{ID: n.ID, Type: n.Type})
			continue
		}
		op := toOperation(cfg)
		op.Type = cfg.NodeType()
		if headers != nil {
			if label, ok := headers.Label(n.ID); ok {
				op.Output = label
			}
		}
		p.Operations = append(p.Operations, op)
	}
	return p
}

func toOperation(cfg nodeconfig.Config) Operation {
	switch c := cfg.(type) {
	case nodeconfig.Filter:
		return Operation{ID: c.ID, Op: c.Op, Mode: c.Mode, Logic: c.Logic, Column: c.Column, Value: c.Value}
	case nodeconfig.Select:
		return Operation{ID: c.ID, Op: c.Op, Column: c.Column}
	case nodeconfig.Str:
		return Operation{ID: c.ID, Op: c.Op, Mode: c.Mode, Column: c.Column, Comparand: c.Comparand, Replacement: c.Replacement}
	case nodeconfig.Rename:
		return Operation{ID: c.ID, Op: c.Op, Column: c.Column, Value: c.Value}
	case nodeconfig.Slice:
		return Operation{ID: c.ID, Op: c.Op, Mode: c.Mode, Column: c.Column, Offset: c.Offset, Length: c.Length}
	default:
		return Operation{ID: cfg.NodeID(), Op: string(cfg.NodeType())}
	}
}
