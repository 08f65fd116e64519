package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_SuffixesCollisions(t *testing.T) {
	r := New(nil)

	assert.Equal(t, "amount", r.Set("n1", "amount"))
	assert.Equal(t, "amount_1", r.Set("n2", "amount"))
	assert.Equal(t, "amount_2", r.Set("n3", " amount "))

	// Re-applying the same request is stable for the holder.
	assert.Equal(t, "amount_1", r.Set("n2", "amount"))
	assert.Equal(t, "amount", r.Set("n1", "amount"))

	assert.Equal(t, []Entry{
		{Label: "amount", Value: "n1"},
		{Label: "amount_1", Value: "n2"},
		{Label: "amount_2", Value: "n3"},
	}, r.Entries())
}

func TestSet_UpdatesInPlace(t *testing.T) {
	r := New(nil)
	r.Set("a", "first")
	r.Set("b", "second")

	assert.Equal(t, "renamed", r.Set("a", "renamed"))
	assert.Equal(t, []string{"renamed", "second"}, r.Labels())

	// The freed label is available again.
	assert.Equal(t, "first", r.Set("c", "first"))
}

func TestSet_BlankRemoves(t *testing.T) {
	r := New(nil)
	r.Set("a", "x")

	assert.Equal(t, "", r.Set("a", "   "))
	_, ok := r.Label("a")
	assert.False(t, ok)
	assert.Empty(t, r.Entries())
}

func TestRemove(t *testing.T) {
	r := New(nil)
	r.Set("a", "x")
	r.Set("b", "y")

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))

	label, ok := r.Label("b")
	require.True(t, ok)
	assert.Equal(t, "y", label)
	assert.Equal(t, []string{"y"}, r.Labels())
}

func TestRestore(t *testing.T) {
	r := New(nil)
	r.Set("stale", "gone")

	err := r.Restore([]Entry{
		{Label: "total", Value: "n1"},
		{Label: "total", Value: "n2"},
		{Label: "", Value: "n3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Label: "total", Value: "n1"},
		{Label: "total_1", Value: "n2"},
	}, r.Entries())

	err = r.Restore([]Entry{{Label: "x"}})
	assert.ErrorContains(t, err, "has no node id")
	assert.Len(t, r.Entries(), 2, "a rejected restore keeps the current entries")
}
