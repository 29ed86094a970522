package execplan

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/pkg/rangevec/aggregate"
)

func seriesForTest(label string, values map[int64]float64) rangevec.RangeVector {
	rows := make([]rangevec.Row, 0, len(values))
	timestamps := make([]int64, 0, len(values))
	for ts := range values {
		timestamps = append(timestamps, ts)
	}
	for _, ts := range timestamps {
		rows = append(rows, rangevec.NewTransientRow(ts, values[ts]))
	}
	key := rangevec.NewRangeVectorKey([]rangevec.LabelPair{{Name: []byte("series"), Value: []byte(label)}})
	outputRange := rangevec.OutputRange{StartMs: 1000, StepMs: 1000, EndMs: 2000}
	return rangevec.NewRangeVector(key, rows, &outputRange)
}

func groupAll(rangevec.RangeVector) rangevec.RangeVectorKey {
	return rangevec.NewRangeVectorKey([]rangevec.LabelPair{{Name: []byte("group"), Value: []byte("all")}})
}

func TestAggregateTransformerWithoutFinalPresentStopsAtIntermediate(t *testing.T) {
	agg := aggregate.NewSumAggregator()
	tr := NewAggregateTransformer(aggregate.Sum, agg, groupAll, false, false, 4)

	rvs := []rangevec.RangeVector{
		seriesForTest("a", map[int64]float64{1000: 1, 2000: 2}),
		seriesForTest("b", map[int64]float64{1000: 3, 2000: 4}),
	}

	out, schema, err := tr.Apply(context.Background(), rvs, newTestSession(), 0, rangevec.ResultSchema{}, nil)
	require.NoError(t, err)
	require.Equal(t, agg.ReductionSchema(rangevec.ResultSchema{}), schema)
	require.Len(t, out, 1)
}

func TestAggregateTransformerFinalPresentProducesOutput(t *testing.T) {
	agg := aggregate.NewSumAggregator()
	tr := NewAggregateTransformer(aggregate.Sum, agg, groupAll, false, true, 4)

	rvs := []rangevec.RangeVector{
		seriesForTest("a", map[int64]float64{1000: 1, 2000: 2}),
		seriesForTest("b", map[int64]float64{1000: 3, 2000: math.NaN()}),
	}

	out, schema, err := tr.Apply(context.Background(), rvs, newTestSession(), 0, rangevec.ResultSchema{}, nil)
	require.NoError(t, err)
	require.Equal(t, agg.PresentationSchema(rangevec.ResultSchema{}), schema)
	require.Len(t, out, 1)

	rows := rangevec.CollectRows(out[0].Rows())
	require.Len(t, rows, 2)
	require.InDelta(t, 4.0, rows[0].GetDouble(1), 1e-9)
	require.InDelta(t, 2.0, rows[1].GetDouble(1), 1e-9)
}

func TestAggregateTransformerSkipMapPhaseMergesIntermediates(t *testing.T) {
	agg := aggregate.NewSumAggregator()
	leafTr := NewAggregateTransformer(aggregate.Sum, agg, groupAll, false, false, 4)
	rootTr := NewAggregateTransformer(aggregate.Sum, aggregate.NewSumAggregator(), groupAll, true, true, 4)

	shard1 := []rangevec.RangeVector{seriesForTest("a", map[int64]float64{1000: 1})}
	shard2 := []rangevec.RangeVector{seriesForTest("b", map[int64]float64{1000: 2})}

	r1, _, err := leafTr.Apply(context.Background(), shard1, newTestSession(), 0, rangevec.ResultSchema{}, nil)
	require.NoError(t, err)
	r2, _, err := leafTr.Apply(context.Background(), shard2, newTestSession(), 0, rangevec.ResultSchema{}, nil)
	require.NoError(t, err)

	merged, _, err := rootTr.Apply(context.Background(), append(r1, r2...), newTestSession(), 0, rangevec.ResultSchema{}, nil)
	require.NoError(t, err)
	require.Len(t, merged, 1)

	rows := rangevec.CollectRows(merged[0].Rows())
	require.Len(t, rows, 1)
	require.InDelta(t, 3.0, rows[0].GetDouble(1), 1e-9)
}
