package aggregate

import (
	"math"

	"github.com/grafana/rangevector/pkg/rangevec"
)

// GroupAggregator implements Group: output is 1.0 wherever at least one
// non-NaN input exists at t, NaN otherwise.
type GroupAggregator struct{}

func NewGroupAggregator() *GroupAggregator { return &GroupAggregator{} }

func (a *GroupAggregator) NewRowToMapInto() rangevec.Row { return rangevec.NewTransientRow(0, math.NaN()) }

func (a *GroupAggregator) Map(_ rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row {
	tr := outRow.(*rangevec.TransientRow)
	tr.Reset(row.GetLong(0), row.GetDouble(1))
	return tr
}

func (a *GroupAggregator) ReductionSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *GroupAggregator) PresentationSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *GroupAggregator) NewAccumulator() Accumulator {
	return &scalarAccumulator{value: math.NaN(), combine: groupCombine}
}

func (a *GroupAggregator) Present(rvs []rangevec.RangeVector, limit int, _ rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	return presentScalarGroups(rvs, limit)
}

func groupCombine(acc, v float64) float64 {
	if skipNaN(v) {
		return acc
	}
	return 1.0
}
