package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/flowgrid/internal/header"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHCL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ExampleGraph(t *testing.T) {
	// --- Arrange ---
	path := filepath.Join("testdata", "example.hcl")

	// --- Act ---
	model, err := NewLoader().Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	w, err := model.Single()
	require.NoError(t, err)

	assert.Equal(t, "example", w.ID)
	assert.Equal(t, "Example pipeline", w.Name)
	assert.Equal(t, path, w.Source)
	assert.Equal(t, []node.Node{
		{ID: "s", Type: node.Start, Position: &node.Position{X: 0, Y: 0}},
		{ID: "f", Type: node.Filter, Label: "Large orders"},
		{ID: "e", Type: node.End},
	}, w.Nodes)
	assert.Equal(t, []node.Edge{
		{Source: "s", Target: "f"},
		{ID: "f-to-e", Source: "f", Target: "e"},
	}, w.Edges)
	assert.Equal(t, []nodeconfig.Config{
		nodeconfig.Filter{ID: "f", Op: "filter", Mode: "gt", Column: "amount", Value: "100"},
	}, w.Configs)
	assert.Equal(t, []header.Entry{{Label: "large", Value: "f"}}, w.Headers)
}

func TestLoad_DirectoryAndAliases(t *testing.T) {
	dir := t.TempDir()
	writeHCL(t, dir, "a.hcl", `
workflow "one" {
  node "string" "up" {
    config {
      mode   = "upper"
      column = "name"
    }
  }
}
`)
	writeHCL(t, dir, "b.hcl", `workflow "two" {}`)
	writeHCL(t, dir, "ignored.json", `{}`)

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, model.Workflows, 2)

	one, ok := model.Workflow("one")
	require.True(t, ok)
	assert.Equal(t, "one", one.Name, "name defaults to the block label")
	assert.Equal(t, node.Str, one.Nodes[0].Type)
	require.Len(t, one.Configs, 1)
	assert.Equal(t, nodeconfig.Str{ID: "up", Op: "str", Mode: "upper", Column: "name"}, one.Configs[0])

	_, err = model.Single()
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "syntax error",
			content: `workflow "x" {`,
			errText: "failed to parse HCL file",
		},
		{
			name:    "unknown block",
			content: "workflow \"x\" {\n  pipe \"a\" {}\n}\n",
			errText: "failed to decode HCL file",
		},
		{
			name:    "config on start node",
			content: "workflow \"x\" {\n  node \"start\" \"s\" {\n    config {\n      a = 1\n    }\n  }\n}\n",
			errText: "take no config block",
		},
		{
			name:    "config on opaque type",
			content: "workflow \"x\" {\n  node \"chart\" \"c\" {\n    config {\n      a = 1\n    }\n  }\n}\n",
			errText: "no configuration store",
		},
		{
			name:    "bad position",
			content: "workflow \"x\" {\n  node \"filter\" \"f\" {\n    position = \"left\"\n  }\n}\n",
			errText: "position must be an object",
		},
		{
			name:    "non-scalar config attribute",
			content: "workflow \"x\" {\n  node \"select\" \"s\" {\n    config {\n      column = [\"a\", \"b\"]\n    }\n  }\n}\n",
			errText: `attribute "column"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeHCL(t, t.TempDir(), "bad.hcl", tc.content)

			_, err := NewLoader().Load(context.Background(), path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errText)
		})
	}
}

func TestLoad_MissingPathIsEmpty(t *testing.T) {
	model, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "none.hcl"))
	require.NoError(t, err)
	assert.Empty(t, model.Workflows)
}
