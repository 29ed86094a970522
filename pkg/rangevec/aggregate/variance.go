package aggregate

import (
	"math"

	"github.com/grafana/rangevector/pkg/rangevec"
)

var varianceReductionSchema = rangevec.ResultSchema{
	Columns: []rangevec.ColumnInfo{
		{Name: "timestamp", Type: rangevec.ColumnTimestamp},
		{Name: "mean", Type: rangevec.ColumnDouble},
		{Name: "m2", Type: rangevec.ColumnDouble},
		{Name: "count", Type: rangevec.ColumnDouble},
	},
}

// varianceAggregator backs both StdVar and StdDev: identical Welford/Chan
// combine, differing only in whether Present takes a square root.
type varianceAggregator struct {
	stddev bool
}

func NewStdVarAggregator() RowAggregator { return &varianceAggregator{stddev: false} }
func NewStdDevAggregator() RowAggregator { return &varianceAggregator{stddev: true} }

func (a *varianceAggregator) NewRowToMapInto() rangevec.Row {
	return rangevec.NewMultiColumnRow(0, 3, 0)
}

func (a *varianceAggregator) Map(_ rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row {
	mr := outRow.(*rangevec.MultiColumnRow)
	mr.Timestamp = row.GetLong(0)
	v := row.GetDouble(1)
	if skipNaN(v) {
		mr.Doubles[0], mr.Doubles[1], mr.Doubles[2] = math.NaN(), 0, 0
	} else {
		mr.Doubles[0], mr.Doubles[1], mr.Doubles[2] = v, 0, 1
	}
	return mr
}

func (a *varianceAggregator) ReductionSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return varianceReductionSchema
}

func (a *varianceAggregator) PresentationSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *varianceAggregator) NewAccumulator() Accumulator {
	return &varianceAccumulator{mean: math.NaN()}
}

func (a *varianceAggregator) Present(rvs []rangevec.RangeVector, limit int, _ rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	if limit > 0 && len(rvs) > limit {
		return nil, badQuery("result has %d groups, exceeding limit %d", len(rvs), limit)
	}
	out := make([]rangevec.RangeVector, len(rvs))
	for i, rv := range rvs {
		rows := rangevec.CollectRows(rv.Rows())
		final := make([]rangevec.Row, len(rows))
		for j, r := range rows {
			count := r.GetDouble(3)
			var value float64
			if count == 0 {
				value = math.NaN()
			} else {
				value = r.GetDouble(2) / count
				if a.stddev {
					value = math.Sqrt(value)
				}
			}
			final[j] = rangevec.NewTransientRow(r.GetLong(0), value)
		}
		out[i] = rangevec.NewRangeVector(rv.Key, final, rv.OutputRange)
	}
	return out, nil
}

// varianceAccumulator implements Chan et al.'s parallel variance combine,
// folding one (mean, m2, count) intermediate at a time into the running
// state rather than requiring the whole partition up front.
type varianceAccumulator struct {
	mean  float64
	m2    float64
	count float64
}

func (a *varianceAccumulator) Reduce(row rangevec.Row) {
	rowCount := row.GetDouble(3)
	if rowCount == 0 {
		return
	}
	rowMean := row.GetDouble(1)
	rowM2 := row.GetDouble(2)
	if a.count == 0 {
		a.mean, a.m2, a.count = rowMean, rowM2, rowCount
		return
	}
	delta := rowMean - a.mean
	newCount := a.count + rowCount
	a.mean += delta * rowCount / newCount
	a.m2 += rowM2 + delta*delta*a.count*rowCount/newCount
	a.count = newCount
}

func (a *varianceAccumulator) Row(ts int64) rangevec.Row {
	mr := rangevec.NewMultiColumnRow(ts, 3, 0)
	mr.Doubles[0], mr.Doubles[1], mr.Doubles[2] = a.mean, a.m2, a.count
	return mr
}
