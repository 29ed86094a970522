package aggregate

import (
	"math"

	"github.com/grafana/rangevector/pkg/rangevec"
)

var avgReductionSchema = rangevec.ResultSchema{
	Columns: []rangevec.ColumnInfo{
		{Name: "timestamp", Type: rangevec.ColumnTimestamp},
		{Name: "mean", Type: rangevec.ColumnDouble},
		{Name: "count", Type: rangevec.ColumnDouble},
	},
}

// AvgAggregator implements Avg via an intermediate (mean, count) pair
// combined by weighted-mean reduction, so partial averages computed on
// different shards recombine exactly rather than averaging averages.
type AvgAggregator struct{}

func NewAvgAggregator() *AvgAggregator { return &AvgAggregator{} }

func (a *AvgAggregator) NewRowToMapInto() rangevec.Row {
	return rangevec.NewMultiColumnRow(0, 2, 0)
}

func (a *AvgAggregator) Map(_ rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row {
	mr := outRow.(*rangevec.MultiColumnRow)
	mr.Timestamp = row.GetLong(0)
	v := row.GetDouble(1)
	if skipNaN(v) {
		mr.Doubles[0] = math.NaN()
		mr.Doubles[1] = 0
	} else {
		mr.Doubles[0] = v
		mr.Doubles[1] = 1
	}
	return mr
}

func (a *AvgAggregator) ReductionSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return avgReductionSchema
}

func (a *AvgAggregator) PresentationSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *AvgAggregator) NewAccumulator() Accumulator {
	return &avgAccumulator{mean: math.NaN()}
}

func (a *AvgAggregator) Present(rvs []rangevec.RangeVector, limit int, _ rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	return presentMeanColumn(rvs, limit)
}

type avgAccumulator struct {
	mean  float64
	count float64
}

func (a *avgAccumulator) Reduce(row rangevec.Row) {
	rowMean := row.GetDouble(1)
	rowCount := row.GetDouble(2)
	if rowCount == 0 || skipNaN(rowMean) {
		return
	}
	if a.count == 0 {
		a.mean, a.count = rowMean, rowCount
		return
	}
	total := a.count + rowCount
	a.mean = (a.mean*a.count + rowMean*rowCount) / total
	a.count = total
}

func (a *avgAccumulator) Row(ts int64) rangevec.Row {
	mr := rangevec.NewMultiColumnRow(ts, 2, 0)
	mr.Doubles[0] = a.mean
	mr.Doubles[1] = a.count
	return mr
}

// presentMeanColumn converts Avg's two-column (mean, count) intermediate
// rows into a single-column final output, honoring the group-count limit.
// StdVar/StdDev present their own intermediate rows and do not use it.
func presentMeanColumn(rvs []rangevec.RangeVector, limit int) ([]rangevec.RangeVector, error) {
	if limit > 0 && len(rvs) > limit {
		return nil, badQuery("result has %d groups, exceeding limit %d", len(rvs), limit)
	}
	out := make([]rangevec.RangeVector, len(rvs))
	for i, rv := range rvs {
		rows := rangevec.CollectRows(rv.Rows())
		final := make([]rangevec.Row, len(rows))
		for j, r := range rows {
			final[j] = rangevec.NewTransientRow(r.GetLong(0), r.GetDouble(1))
		}
		out[i] = rangevec.NewRangeVector(rv.Key, final, rv.OutputRange)
	}
	return out, nil
}
