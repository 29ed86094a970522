package aggregate

import (
	"math"

	"github.com/grafana/rangevector/pkg/rangevec"
)

// CountAggregator implements Count: counts non-NaN inputs per timestamp,
// reporting NaN rather than 0 when every input at t was NaN.
type CountAggregator struct{}

func NewCountAggregator() *CountAggregator { return &CountAggregator{} }

func (a *CountAggregator) NewRowToMapInto() rangevec.Row { return rangevec.NewTransientRow(0, math.NaN()) }

func (a *CountAggregator) Map(_ rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row {
	tr := outRow.(*rangevec.TransientRow)
	v := row.GetDouble(1)
	if skipNaN(v) {
		tr.Reset(row.GetLong(0), math.NaN())
	} else {
		tr.Reset(row.GetLong(0), 1)
	}
	return tr
}

func (a *CountAggregator) ReductionSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *CountAggregator) PresentationSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *CountAggregator) NewAccumulator() Accumulator { return &countAccumulator{} }

func (a *CountAggregator) Present(rvs []rangevec.RangeVector, limit int, _ rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	return presentScalarGroups(rvs, limit)
}

type countAccumulator struct {
	count  float64
	sawAny bool
}

// Reduce sums row's contribution rather than incrementing by one, so the
// same accumulator works whether row is a raw sample mapped to 1 (single
// phase) or an already-reduced partial count from a sibling shard
// (two-phase, AggregateTransformer{SkipMapPhase:true} at a composing
// NonLeaf) — a partial count of 2.0 merged with one of 1.0 must yield 3,
// not 2.
func (a *countAccumulator) Reduce(row rangevec.Row) {
	v := row.GetDouble(1)
	if skipNaN(v) {
		return
	}
	a.sawAny = true
	a.count += v
}

func (a *countAccumulator) Row(ts int64) rangevec.Row {
	if !a.sawAny {
		return rangevec.NewTransientRow(ts, math.NaN())
	}
	return rangevec.NewTransientRow(ts, a.count)
}
