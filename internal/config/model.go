package config

import (
	"context"

	"github.com/specialistvlad/flowgrid/internal/header"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
)

// Loader reads definition files of one format into the model.
type Loader interface {
	// Load reads every matching file under the given paths. Directories are
	// walked recursively; paths of other formats are ignored.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Model is the content of one or more definition files.
type Model struct {
	Workflows []*Workflow
}

// Workflow is one workflow definition.
type Workflow struct {
	ID      string
	Name    string
	Nodes   []node.Node
	Edges   []node.Edge
	Configs []nodeconfig.Config
	Headers []header.Entry

	// Source is the file the definition was read from.
	Source string
}

// Merge appends the workflows of other.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	m.Workflows = append(m.Workflows, other.Workflows...)
}

// Workflow returns the definition with the given id.
func (m *Model) Workflow(id string) (*Workflow, bool) {
	for _, w := range m.Workflows {
		if w.ID == id {
			return w, true
		}
	}
	return nil, false
}

// Single returns the only workflow of the model. It fails when the model
// holds none or several, which callers report as a usage error.
func (m *Model) Single() (*Workflow, error) {
	switch len(m.Workflows) {
	case 0:
		return nil, ErrNoWorkflow
	case 1:
		return m.Workflows[0], nil
	default:
		return nil, ErrAmbiguous
	}
}
