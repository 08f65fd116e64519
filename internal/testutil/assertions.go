package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertOperations checks that the plan holds exactly the given node ids,
// in order.
func AssertOperations(t *testing.T, result *HarnessResult, ids ...string) {
	t.Helper()

	got := make([]string, len(result.Plan.Operations))
	for i, op := range result.Plan.Operations {
		got[i] = op.ID
	}
	if ids == nil {
		ids = []string{}
	}
	require.Equal(t, ids, got, "unexpected operations in plan")
}
