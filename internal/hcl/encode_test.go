package hcl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/flowgrid/internal/config"
	"github.com/specialistvlad/flowgrid/internal/header"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_RoundTrip(t *testing.T) {
	model, err := NewLoader().Load(context.Background(), filepath.Join("testdata", "example.hcl"))
	require.NoError(t, err)
	original, err := model.Single()
	require.NoError(t, err)

	data, err := Encode(original)
	require.NoError(t, err)

	path := writeHCL(t, t.TempDir(), "encoded.hcl", string(data))
	model, err = NewLoader().Load(context.Background(), path)
	require.NoError(t, err, string(data))
	decoded, err := model.Single()
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.Name, decoded.Name)
	assert.Equal(t, original.Nodes, decoded.Nodes)
	assert.Equal(t, original.Edges, decoded.Edges)
	assert.Equal(t, original.Configs, decoded.Configs)
	assert.Equal(t, original.Headers, decoded.Headers)
}

func TestEncode_Attributes(t *testing.T) {
	def := &config.Workflow{
		ID:   "w",
		Name: "w",
		Nodes: []node.Node{
			{ID: "s", Type: node.Start},
			{ID: "c", Type: node.Slice},
			{ID: "r", Type: node.Rename},
		},
		Edges: []node.Edge{{ID: "e1", Source: "s", Target: "c"}},
		Configs: []nodeconfig.Config{
			nodeconfig.Slice{ID: "c", Op: "custom", Column: "code", Offset: "1", Length: "3"},
			// Type mismatch with the node: not written.
			nodeconfig.Filter{ID: "r", Mode: "equal"},
		},
		Headers: []header.Entry{{Label: "short", Value: "c"}},
	}

	data, err := Encode(def)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, "name", "a name equal to the id is implied")
	assert.Contains(t, out, `node "slice" "c"`)
	assert.Contains(t, out, `output = "short"`)
	assert.Contains(t, out, `op     = "custom"`)
	assert.Contains(t, out, `offset = "1"`)
	assert.NotContains(t, out, "mode", "empty fields are omitted")
	assert.NotContains(t, out, `"equal"`)
	assert.Contains(t, out, `edge "s" "c"`)
	assert.Contains(t, out, `id = "e1"`)
}
