package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseType(t *testing.T) {
	testCases := []struct {
		raw      string
		expected Type
	}{
		{raw: "start", expected: Start},
		{raw: " End ", expected: End},
		{raw: "string", expected: Str},
		{raw: "str", expected: Str},
		{raw: "custom", expected: Type("custom")},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseType(tc.raw))
		})
	}
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, Start.IsSentinel())
	assert.True(t, End.IsSentinel())
	assert.False(t, Filter.IsSentinel())
}

func TestEdgeTouches(t *testing.T) {
	ids := Set([]string{"f"})

	assert.True(t, Edge{Source: "s", Target: "f"}.Touches(ids))
	assert.True(t, Edge{Source: "f", Target: "e"}.Touches(ids))
	assert.False(t, Edge{Source: "s", Target: "e"}.Touches(ids))
}
