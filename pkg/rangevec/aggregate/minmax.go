package aggregate

import (
	"math"

	"github.com/grafana/rangevector/pkg/rangevec"
)

// minMaxAggregator backs both Min and Max: identical shape, differing only
// in the combine direction.
type minMaxAggregator struct {
	max bool
}

func NewMinAggregator() RowAggregator { return &minMaxAggregator{max: false} }
func NewMaxAggregator() RowAggregator { return &minMaxAggregator{max: true} }

func (a *minMaxAggregator) NewRowToMapInto() rangevec.Row {
	return rangevec.NewTransientRow(0, math.NaN())
}

func (a *minMaxAggregator) Map(_ rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row {
	tr := outRow.(*rangevec.TransientRow)
	tr.Reset(row.GetLong(0), row.GetDouble(1))
	return tr
}

func (a *minMaxAggregator) ReductionSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *minMaxAggregator) PresentationSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *minMaxAggregator) NewAccumulator() Accumulator {
	combine := minCombine
	if a.max {
		combine = maxCombine
	}
	return &scalarAccumulator{value: math.NaN(), combine: combine}
}

func (a *minMaxAggregator) Present(rvs []rangevec.RangeVector, limit int, _ rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	return presentScalarGroups(rvs, limit)
}

func minCombine(acc, v float64) float64 {
	if skipNaN(v) {
		return acc
	}
	if skipNaN(acc) {
		return v
	}
	return math.Min(acc, v)
}

func maxCombine(acc, v float64) float64 {
	if skipNaN(v) {
		return acc
	}
	if skipNaN(acc) {
		return v
	}
	return math.Max(acc, v)
}
