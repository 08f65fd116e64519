package nodeconfig

import (
	"errors"
	"testing"

	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsert_AppendsThenReplacesInPlace(t *testing.T) {
	r := New(nil)

	require.NoError(t, r.Upsert(Filter{ID: "f1", Mode: "equal", Column: "a", Value: "1"}))
	require.NoError(t, r.Upsert(Filter{ID: "f2", Mode: "equal", Column: "b", Value: "2"}))
	require.NoError(t, r.Upsert(Filter{ID: "f1", Mode: "contains", Column: "a", Value: "x"}))

	records := r.Records(node.Filter)
	require.Len(t, records, 2, "upsert never duplicates")
	assert.Equal(t, Filter{ID: "f1", Op: "filter", Mode: "contains", Column: "a", Value: "x"}, records[0])
	assert.Equal(t, "f2", records[1].NodeID(), "position is preserved")
}

func TestUpsert_KeysAreScopedByType(t *testing.T) {
	r := New(nil)

	require.NoError(t, r.Upsert(Select{ID: "n1", Column: "a|b"}))
	require.NoError(t, r.Upsert(Rename{ID: "n1", Column: "a", Value: "b"}))

	sel, ok := r.Get(node.Select, "n1")
	require.True(t, ok)
	assert.Equal(t, Select{ID: "n1", Op: "select", Column: "a|b"}, sel)

	ren, ok := r.Get(node.Rename, "n1")
	require.True(t, ok)
	assert.Equal(t, node.Rename, ren.NodeType())
	assert.Equal(t, 2, r.Len())
}

func TestUpsert_Errors(t *testing.T) {
	r := New(nil)

	err := r.Upsert(Filter{Mode: "equal"})
	assert.True(t, errors.Is(err, ErrMissingID))

	err = r.Upsert(nil)
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestUpsert_KeepsExplicitOp(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Upsert(Str{ID: "s1", Op: "str", Mode: "upper", Column: "name"}))
	require.NoError(t, r.Upsert(Slice{ID: "c1", Op: "custom", Column: "name", Offset: "1", Length: "3"}))

	got, ok := r.Get(node.Slice, "c1")
	require.True(t, ok)
	assert.Equal(t, "custom", got.(Slice).Op)
}

func TestGet_Missing(t *testing.T) {
	r := New(nil)

	_, ok := r.Get(node.Filter, "nope")
	assert.False(t, ok)

	_, ok = r.Get(node.Start, "s")
	assert.False(t, ok)
	assert.Nil(t, r.Records(node.End))
}

func TestRemoveNode(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Upsert(Filter{ID: "a"}))
	require.NoError(t, r.Upsert(Filter{ID: "b"}))
	require.NoError(t, r.Upsert(Filter{ID: "c"}))
	require.NoError(t, r.Upsert(Str{ID: "b"}))

	assert.Equal(t, 2, r.RemoveNode("b"))
	assert.Equal(t, 0, r.RemoveNode("b"))

	records := r.Records(node.Filter)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].NodeID())
	assert.Equal(t, "c", records[1].NodeID())

	// The index must follow the shifted positions.
	require.NoError(t, r.Upsert(Filter{ID: "c", Value: "updated"}))
	got, ok := r.Get(node.Filter, "c")
	require.True(t, ok)
	assert.Equal(t, "updated", got.(Filter).Value)
	assert.Len(t, r.Records(node.Filter), 2)
}

func TestSnapshotAndReplace(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Upsert(Filter{ID: "f"}))
	require.NoError(t, r.Upsert(Select{ID: "s", Column: "a"}))

	snap := r.Snapshot()
	assert.Len(t, snap, len(Types()))
	assert.Len(t, snap["filters"], 1)
	assert.Len(t, snap["selects"], 1)
	assert.Empty(t, snap["slices"])

	other := New(nil)
	require.NoError(t, other.Replace(node.Filter, snap["filters"]))
	_, ok := other.Get(node.Filter, "f")
	assert.True(t, ok)

	err := other.Replace(node.Filter, snap["selects"])
	assert.ErrorContains(t, err, "cannot be stored under filter")

	err = other.Replace(node.End, nil)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestDecode(t *testing.T) {
	t.Run("filter", func(t *testing.T) {
		cfg, err := Decode(node.Filter, []byte(`{"id":"f","mode":"gt","column":"amount","value":"10","logic":"and"}`))
		require.NoError(t, err)
		assert.Equal(t, Filter{ID: "f", Op: "filter", Mode: "gt", Logic: "and", Column: "amount", Value: "10"}, cfg)
	})

	t.Run("list", func(t *testing.T) {
		cfgs, err := DecodeList(node.Str, []byte(`[{"id":"a","mode":"upper","column":"x"},{"id":"b","mode":"lower","column":"y"}]`))
		require.NoError(t, err)
		require.Len(t, cfgs, 2)
		assert.Equal(t, "b", cfgs[1].NodeID())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Decode(node.Filter, []byte(`{"mode":"gt"}`))
		assert.True(t, errors.Is(err, ErrMissingID))

		_, err = Decode(node.Start, []byte(`{"id":"s"}`))
		assert.True(t, errors.Is(err, ErrUnknownType))

		_, err = Decode(node.Select, []byte(`not json`))
		assert.ErrorContains(t, err, "failed to decode select configuration")

		_, err = DecodeList(node.Select, []byte(`[{"id":"ok"},{"column":"x"}]`))
		assert.ErrorContains(t, err, "record 1")
	})
}

func TestStoreKeys(t *testing.T) {
	for _, typ := range Types() {
		key, ok := StoreKey(typ)
		require.True(t, ok)
		back, ok := TypeForStoreKey(key)
		require.True(t, ok)
		assert.Equal(t, typ, back)
	}
	_, ok := StoreKey(node.Start)
	assert.False(t, ok)
}
