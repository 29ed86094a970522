package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/rangevector/pkg/rangevec"
)

func keyFor(name string) rangevec.RangeVectorKey {
	return rangevec.NewRangeVectorKey([]rangevec.LabelPair{{Name: []byte("series"), Value: []byte(name)}})
}

func TestTopKMapSkipsNaNCandidate(t *testing.T) {
	agg := NewTopKAggregator(2)
	mapRow := agg.NewRowToMapInto()
	mapped := agg.Map(keyFor("a"), rangevec.NewTransientRow(1000, math.NaN()), mapRow)
	mr := mapped.(*rangevec.MultiColumnRow)
	for i := 0; i < 2; i++ {
		require.Equal(t, "", mr.Strings[i])
	}
}

func TestTopKAccumulatorKeepsKLargest(t *testing.T) {
	agg := NewTopKAggregator(2)
	acc := agg.NewAccumulator()

	for _, pair := range []struct {
		name string
		v    float64
	}{{"a", 1}, {"b", 5}, {"c", 3}, {"d", 9}} {
		mapRow := agg.NewRowToMapInto()
		mapped := agg.Map(keyFor(pair.name), rangevec.NewTransientRow(1000, pair.v), mapRow)
		acc.Reduce(mapped)
	}

	row := acc.Row(1000).(*rangevec.MultiColumnRow)
	require.Equal(t, 9.0, row.Doubles[0])
	require.Equal(t, 5.0, row.Doubles[1])
}

func TestBottomKAccumulatorKeepsKSmallest(t *testing.T) {
	agg := NewBottomKAggregator(2)
	acc := agg.NewAccumulator()

	for _, pair := range []struct {
		name string
		v    float64
	}{{"a", 1}, {"b", 5}, {"c", 3}, {"d", 9}} {
		mapRow := agg.NewRowToMapInto()
		mapped := agg.Map(keyFor(pair.name), rangevec.NewTransientRow(1000, pair.v), mapRow)
		acc.Reduce(mapped)
	}

	row := acc.Row(1000).(*rangevec.MultiColumnRow)
	require.Equal(t, 1.0, row.Doubles[0])
	require.Equal(t, 3.0, row.Doubles[1])
}

func TestTopKTieBreaksByLabel(t *testing.T) {
	agg := NewTopKAggregator(1)
	acc := agg.NewAccumulator()

	mapRowB := agg.NewRowToMapInto()
	mappedB := agg.Map(keyFor("zzz"), rangevec.NewTransientRow(1000, 5.0), mapRowB)
	acc.Reduce(mappedB)

	mapRowA := agg.NewRowToMapInto()
	mappedA := agg.Map(keyFor("aaa"), rangevec.NewTransientRow(1000, 5.0), mapRowA)
	acc.Reduce(mappedA)

	row := acc.Row(1000).(*rangevec.MultiColumnRow)
	require.Contains(t, row.Strings[0], "aaa")
}
