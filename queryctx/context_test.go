package queryctx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewContextHasQueryID(t *testing.T) {
	ctx := New(PlannerParams{QueryTimeoutMillis: 1000}, 0)
	require.NotEmpty(t, ctx.QueryID)
}

func TestExpired(t *testing.T) {
	ctx := New(PlannerParams{QueryTimeoutMillis: 1000}, 0)
	require.False(t, ctx.Expired(999))
	require.True(t, ctx.Expired(1000))
	require.True(t, ctx.Expired(5000))
}

func TestQueryStatsMergeAccumulatesAndFlagsPartial(t *testing.T) {
	parent := &QueryStats{}
	child1 := &QueryStats{}
	child1.AddSamples(10)
	child1.AddBytes(100)

	child2 := &QueryStats{}
	child2.AddSamples(5)
	child2.MarkPartial("child timeout")

	parent.Merge(child1)
	parent.Merge(child2)

	snap := parent.Snapshot()
	require.Equal(t, int64(15), snap.NumResultSamples)
	require.Equal(t, int64(100), snap.ResultBytes)
	require.True(t, snap.ResultCouldBePartial)
	require.Equal(t, "child timeout", snap.PartialResultsReason)
}

func TestMarkPartialKeepsFirstReason(t *testing.T) {
	s := &QueryStats{}
	s.MarkPartial("first")
	s.MarkPartial("second")
	require.Equal(t, "first", s.Snapshot().PartialResultsReason)
}
