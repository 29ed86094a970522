package aggregate

import (
	"math"

	"github.com/grafana/rangevector/pkg/rangevec"
)

// SumAggregator implements Sum: accumulator starts at NaN, NaN inputs are
// skipped, first non-NaN input sets the running sum, later ones add to it.
type SumAggregator struct{}

func NewSumAggregator() *SumAggregator { return &SumAggregator{} }

func (a *SumAggregator) NewRowToMapInto() rangevec.Row { return rangevec.NewTransientRow(0, math.NaN()) }

func (a *SumAggregator) Map(_ rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row {
	tr := outRow.(*rangevec.TransientRow)
	tr.Reset(row.GetLong(0), row.GetDouble(1))
	return tr
}

func (a *SumAggregator) ReductionSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *SumAggregator) PresentationSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *SumAggregator) NewAccumulator() Accumulator {
	return &scalarAccumulator{value: math.NaN(), combine: sumCombine}
}

func (a *SumAggregator) Present(rvs []rangevec.RangeVector, limit int, _ rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	return presentScalarGroups(rvs, limit)
}

func sumCombine(acc, v float64) float64 {
	if skipNaN(v) {
		return acc
	}
	if skipNaN(acc) {
		return v
	}
	return acc + v
}

// scalarAccumulator is the shared accumulator shape for every operator whose
// intermediate state is a single running double combined by a commutative,
// NaN-skipping binary function: Sum, Min, Max, Group.
type scalarAccumulator struct {
	value   float64
	combine func(acc, v float64) float64
}

func (a *scalarAccumulator) Reduce(row rangevec.Row) {
	a.value = a.combine(a.value, row.GetDouble(1))
}

func (a *scalarAccumulator) Row(ts int64) rangevec.Row {
	return rangevec.NewTransientRow(ts, a.value)
}

// presentScalarGroups is the identity presentation shared by Sum/Min/Max/
// Group/Count: the reduced intermediate row already carries the
// final value, so present only needs to cap output cardinality.
func presentScalarGroups(rvs []rangevec.RangeVector, limit int) ([]rangevec.RangeVector, error) {
	if limit > 0 && len(rvs) > limit {
		return nil, badQuery("result has %d groups, exceeding limit %d", len(rvs), limit)
	}
	return rvs, nil
}
