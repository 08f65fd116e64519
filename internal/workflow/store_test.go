package workflow

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/specialistvlad/flowgrid/internal/graph"
	"github.com/specialistvlad/flowgrid/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestStore returns a store with sequential ids ("ws1", "ws2", ...) and a
// clock that advances one minute per call.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	var ids, ticks int
	return New(
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("ws%d", ids)
		}),
		WithClock(func() time.Time {
			ticks++
			return epoch.Add(time.Duration(ticks) * time.Minute)
		}),
	)
}

func TestCreate_SelectsNewWorkflow(t *testing.T) {
	s := newTestStore(t)

	id := s.Create("  First  ")
	assert.Equal(t, "ws1", id)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "First", cur.Name)
	assert.Empty(t, cur.Nodes)
	assert.NotNil(t, cur.Nodes)
	assert.Equal(t, cur.CreatedAt, cur.UpdatedAt)

	s.Create("Second")
	assert.Equal(t, "ws2", s.CurrentID())
	assert.Len(t, s.List(), 2)
}

func TestCreate_DefaultIDsAreUUIDs(t *testing.T) {
	s := New()
	a, b := s.Create("a"), s.Create("b")
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestNameExists(t *testing.T) {
	s := newTestStore(t)
	s.Create("Sales")

	assert.True(t, s.NameExists("Sales"))
	assert.True(t, s.NameExists(" Sales "))
	assert.False(t, s.NameExists("sales"))
}

func TestRemove_FallbackRule(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")
	s.Create("two")

	require.NoError(t, s.Remove("ws2"))
	assert.Equal(t, "ws1", s.CurrentID())

	require.NoError(t, s.Remove("ws1"))
	assert.Equal(t, "", s.CurrentID())
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Nil(t, s.State().CurrentID)
}

func TestRemove_NonCurrentKeepsSelection(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")
	s.Create("two")
	s.Create("three")

	require.NoError(t, s.Remove("ws1"))
	assert.Equal(t, "ws3", s.CurrentID())

	err := s.Remove("ws1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRemove_CurrentFallsBackToFirstRemaining(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")
	s.Create("two")
	s.Create("three")
	_, err := s.SwitchTo("ws2")
	require.NoError(t, err)

	require.NoError(t, s.Remove("ws2"))
	assert.Equal(t, "ws1", s.CurrentID())
}

func TestNoSelectionErrors(t *testing.T) {
	s := newTestStore(t)

	assert.True(t, errors.Is(s.SaveCurrent(nil, nil), ErrNoSelection))
	assert.True(t, errors.Is(s.AddNode(node.Node{ID: "a"}), ErrNoSelection))
	assert.True(t, errors.Is(s.AddEdge(node.Edge{Source: "a", Target: "b"}), ErrNoSelection))
	_, err := s.RemoveNodes([]string{"a"})
	assert.True(t, errors.Is(err, ErrNoSelection))
	_, err = s.RemoveEdges([]string{"a"})
	assert.True(t, errors.Is(err, ErrNoSelection))
}

func TestSwitchTo(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")
	s.Create("two")

	w, err := s.SwitchTo("ws1")
	require.NoError(t, err)
	assert.Equal(t, "one", w.Name)
	assert.Equal(t, "ws1", s.CurrentID())

	_, err = s.SwitchTo("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "ws1", s.CurrentID(), "failed switch keeps the selection")
}

func TestGetWorkflowData(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")

	w, err := s.GetWorkflowData("ws1")
	require.NoError(t, err)
	assert.Equal(t, "one", w.Name)

	_, err = s.GetWorkflowData("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.EqualError(t, err, `the workspace does not exist: "nope"`)
}

func TestAddNodeAndEdge_Append(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")

	require.NoError(t, s.AddNode(node.Node{ID: "s", Type: node.Start}))
	require.NoError(t, s.AddNode(node.Node{ID: "e", Type: node.End}))
	require.NoError(t, s.AddEdge(node.Edge{ID: "s-e", Source: "s", Target: "e"}))

	err := s.AddNode(node.Node{ID: "s", Type: node.Filter})
	assert.True(t, errors.Is(err, graph.ErrStructural))

	err = s.AddEdge(node.Edge{ID: "bad", Source: "s", Target: "ghost"})
	assert.True(t, errors.Is(err, graph.ErrStructural))

	cur, _ := s.Current()
	assert.Equal(t, []string{"s", "e"}, node.IDs(cur.Nodes))
	require.Len(t, cur.Edges, 1)
	assert.Equal(t, "s-e", cur.Edges[0].ID)
}

func TestRemoveNodes_Cascades(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")
	require.NoError(t, s.SaveCurrent(
		[]node.Node{{ID: "s"}, {ID: "f"}, {ID: "e"}},
		[]node.Edge{{ID: "1", Source: "s", Target: "f"}, {ID: "2", Source: "f", Target: "e"}},
	))

	removed, err := s.RemoveNodes([]string{"f", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, removed)

	cur, _ := s.Current()
	assert.Equal(t, []string{"s", "e"}, node.IDs(cur.Nodes))
	assert.Empty(t, cur.Edges)
	assert.NotNil(t, cur.Edges)
}

func TestRemoveEdges(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")
	require.NoError(t, s.SaveCurrent(
		[]node.Node{{ID: "a"}, {ID: "b"}},
		[]node.Edge{{ID: "1", Source: "a", Target: "b"}, {ID: "2", Source: "b", Target: "a"}},
	))

	n, err := s.RemoveEdges([]string{"2", "9"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	cur, _ := s.Current()
	require.Len(t, cur.Edges, 1)
	assert.Equal(t, "1", cur.Edges[0].ID)
}

func TestSaveCurrent(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")
	before, _ := s.Current()

	nodes := []node.Node{{ID: "a"}, {ID: "b"}}
	edges := []node.Edge{{ID: "ab", Source: "a", Target: "b"}}
	require.NoError(t, s.SaveCurrent(nodes, edges))

	after, _ := s.Current()
	assert.Equal(t, nodes, after.Nodes)
	assert.Equal(t, edges, after.Edges)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	// The store keeps its own copy.
	nodes[0].ID = "mutated"
	again, _ := s.Current()
	assert.Equal(t, "a", again.Nodes[0].ID)

	err := s.SaveCurrent(nodes, []node.Edge{{ID: "x", Source: "a", Target: "zzz"}})
	require.Error(t, err)
	var sErr *graph.StructuralError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, graph.KindDanglingEdge, sErr.Kind)
}

func TestRename(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")

	require.NoError(t, s.Rename("ws1", "  uno "))
	w, _ := s.GetWorkflowData("ws1")
	assert.Equal(t, "uno", w.Name)

	assert.True(t, errors.Is(s.Rename("ws1", " "), ErrEmptyName))
	assert.True(t, errors.Is(s.Rename("nope", "x"), ErrNotFound))
}

func TestStateRestore(t *testing.T) {
	s := newTestStore(t)
	s.Create("one")
	require.NoError(t, s.SaveCurrent([]node.Node{{ID: "a"}}, nil))
	s.Create("two")
	_, err := s.SwitchTo("ws1")
	require.NoError(t, err)

	st := s.State()
	require.NotNil(t, st.CurrentID)
	assert.Equal(t, "ws1", *st.CurrentID)

	restored := newTestStore(t)
	require.NoError(t, restored.Restore(st))
	assert.Equal(t, s.List(), restored.List())
	assert.Equal(t, "ws1", restored.CurrentID())
}

func TestRestore_Rules(t *testing.T) {
	t.Run("unknown current id falls back to first", func(t *testing.T) {
		s := newTestStore(t)
		ghost := "ghost"
		require.NoError(t, s.Restore(State{CurrentID: &ghost, List: []Workflow{{ID: "a"}, {ID: "b"}}}))
		assert.Equal(t, "a", s.CurrentID())
	})

	t.Run("empty list", func(t *testing.T) {
		s := newTestStore(t)
		s.Create("dropped")
		require.NoError(t, s.Restore(State{}))
		assert.Empty(t, s.List())
		assert.Equal(t, "", s.CurrentID())
	})

	t.Run("dangling edges are repaired", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Restore(State{List: []Workflow{{
			ID:    "a",
			Nodes: []node.Node{{ID: "x"}},
			Edges: []node.Edge{{ID: "e", Source: "x", Target: "y"}},
		}}}))
		w, _ := s.Current()
		assert.Empty(t, w.Edges)
	})

	t.Run("duplicate ids are rejected", func(t *testing.T) {
		s := newTestStore(t)
		err := s.Restore(State{List: []Workflow{{ID: "a"}, {ID: "a"}}})
		assert.True(t, errors.Is(err, ErrDuplicate))
	})

	t.Run("missing id is rejected", func(t *testing.T) {
		s := newTestStore(t)
		err := s.Restore(State{List: []Workflow{{Name: "anon"}}})
		assert.True(t, errors.Is(err, ErrInvalidDocument))
	})
}
