package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/rangevector/pkg/rangevec"
)

func TestCountAllNaNYieldsNaN(t *testing.T) {
	agg := NewCountAggregator()
	acc := agg.NewAccumulator()
	acc.Reduce(rangevec.NewTransientRow(1000, math.NaN()))
	acc.Reduce(rangevec.NewTransientRow(1000, math.NaN()))
	require.True(t, math.IsNaN(acc.Row(1000).GetDouble(1)))
}

func TestCountNonNaNCounts(t *testing.T) {
	agg := NewCountAggregator()
	acc := agg.NewAccumulator()
	acc.Reduce(rangevec.NewTransientRow(1000, math.NaN()))
	acc.Reduce(rangevec.NewTransientRow(1000, 1.0))
	acc.Reduce(rangevec.NewTransientRow(1000, 1.0))
	require.Equal(t, 2.0, acc.Row(1000).GetDouble(1))
}

func TestCountMapEmitsOneForEveryNonNaNSample(t *testing.T) {
	agg := NewCountAggregator()
	mapped := agg.Map(rangevec.RangeVectorKey{}, rangevec.NewTransientRow(1000, 42.0), agg.NewRowToMapInto())
	require.Equal(t, 1.0, mapped.GetDouble(1))

	mappedNaN := agg.Map(rangevec.RangeVectorKey{}, rangevec.NewTransientRow(1000, math.NaN()), agg.NewRowToMapInto())
	require.True(t, math.IsNaN(mappedNaN.GetDouble(1)))
}

// Reduce sums its input's contribution rather than counting rows, so
// merging already-reduced partial counts from two shards (the skipMapPhase
// path at a composing NonLeaf) adds their magnitudes instead of treating
// each shard's partial as a single occurrence.
func TestCountReduceSumsPartialCounts(t *testing.T) {
	agg := NewCountAggregator()
	acc := agg.NewAccumulator()
	acc.Reduce(rangevec.NewTransientRow(1000, 2.0))
	acc.Reduce(rangevec.NewTransientRow(1000, 1.0))
	require.Equal(t, 3.0, acc.Row(1000).GetDouble(1))
}
