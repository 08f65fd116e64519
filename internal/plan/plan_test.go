package plan

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/specialistvlad/flowgrid/internal/header"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/specialistvlad/flowgrid/internal/nodeconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func path(spec ...[2]string) []node.Node {
	out := make([]node.Node, len(spec))
	for i, s := range spec {
		out[i] = node.Node{ID: s[0], Type: node.Type(s[1])}
	}
	return out
}

func TestResolve_ExamplePipeline(t *testing.T) {
	configs := nodeconfig.New(nil)
	require.NoError(t, configs.Upsert(nodeconfig.Filter{ID: "f", Mode: "gt", Column: "amount", Value: "10"}))

	p := Resolve(context.Background(), path([2]string{"s", "start"}, [2]string{"f", "filter"}, [2]string{"e", "end"}), configs, nil)

	require.Len(t, p.Operations, 1)
	assert.Equal(t, Operation{ID: "f", Type: node.Filter, Op: "filter", Mode: "gt", Column: "amount", Value: "10"}, p.Operations[0])
	assert.Empty(t, p.Unresolved)
	assert.NoError(t, p.Strict())
}

func TestResolve_KeepsPathOrderAcrossTypes(t *testing.T) {
	configs := nodeconfig.New(nil)
	require.NoError(t, configs.Upsert(nodeconfig.Rename{ID: "r", Column: "a", Value: "b"}))
	require.NoError(t, configs.Upsert(nodeconfig.Select{ID: "sel", Column: "a|c"}))
	require.NoError(t, configs.Upsert(nodeconfig.Str{ID: "up", Mode: "replace", Column: "c", Comparand: "x", Replacement: "y"}))
	require.NoError(t, configs.Upsert(nodeconfig.Slice{ID: "cut", Mode: "slice", Column: "c", Offset: "0", Length: "2"}))

	p := Resolve(context.Background(), path(
		[2]string{"s", "start"},
		[2]string{"up", "str"},
		[2]string{"sel", "select"},
		[2]string{"cut", "slice"},
		[2]string{"r", "rename"},
		[2]string{"e", "end"},
	), configs, nil)

	ids := make([]string, len(p.Operations))
	for i, op := range p.Operations {
		ids[i] = op.ID
	}
	assert.Equal(t, []string{"up", "sel", "cut", "r"}, ids)
	assert.Equal(t, "x", p.Operations[0].Comparand)
	assert.Equal(t, "2", p.Operations[2].Length)
}

func TestResolve_TagsOperationsWithNodeType(t *testing.T) {
	configs := nodeconfig.New(nil)
	require.NoError(t, configs.Upsert(nodeconfig.Filter{ID: "f", Op: "eq", Column: "a", Value: "1"}))
	require.NoError(t, configs.Upsert(nodeconfig.Rename{ID: "r", Op: "eq", Column: "a", Value: "b"}))

	p := Resolve(context.Background(), path(
		[2]string{"s", "start"},
		[2]string{"f", "filter"},
		[2]string{"r", "rename"},
		[2]string{"e", "end"},
	), configs, nil)

	require.Len(t, p.Operations, 2)
	assert.Equal(t, node.Filter, p.Operations[0].Type)
	assert.Equal(t, node.Rename, p.Operations[1].Type)
	assert.Equal(t, "eq", p.Operations[0].Op, "a custom op is kept as configured")

	data, err := json.Marshal(p.Operations)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":"f","type":"filter","op":"eq","column":"a","value":"1"},
		{"id":"r","type":"rename","op":"eq","column":"a","value":"b"}
	]`, string(data))
}

func TestResolve_RecordsUnresolvedNodes(t *testing.T) {
	configs := nodeconfig.New(nil)
	require.NoError(t, configs.Upsert(nodeconfig.Filter{ID: "f2", Mode: "equal", Column: "a", Value: "1"}))

	p := Resolve(context.Background(), path(
		[2]string{"s", "start"},
		[2]string{"f1", "filter"},
		[2]string{"f2", "filter"},
		[2]string{"x", "chart"},
		[2]string{"e", "end"},
	), configs, nil)

	require.Len(t, p.Operations, 1)
	assert.Equal(t, "f2", p.Operations[0].ID)
	assert.Equal(t, []Unresolved{{ID: "f1", Type: node.Filter}, {ID: "x", Type: "chart"}}, p.Unresolved)

	err := p.Strict()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolved))
	assert.Contains(t, err.Error(), "f1, x")
}

func TestResolve_OutputLabels(t *testing.T) {
	configs := nodeconfig.New(nil)
	require.NoError(t, configs.Upsert(nodeconfig.Str{ID: "a", Mode: "upper", Column: "name"}))
	require.NoError(t, configs.Upsert(nodeconfig.Str{ID: "b", Mode: "lower", Column: "name"}))
	headers := header.New(nil)
	headers.Set("a", "upper_name")

	p := Resolve(context.Background(), path([2]string{"a", "str"}, [2]string{"b", "str"}), configs, headers)

	require.Len(t, p.Operations, 2)
	assert.Equal(t, "upper_name", p.Operations[0].Output)
	assert.Empty(t, p.Operations[1].Output)
}

func TestResolve_EmptyPath(t *testing.T) {
	p := Resolve(context.Background(), nil, nodeconfig.New(nil), nil)
	assert.NotNil(t, p.Operations)
	assert.Empty(t, p.Operations)
}
