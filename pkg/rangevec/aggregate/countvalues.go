package aggregate

import (
	"math"
	"strconv"

	"github.com/grafana/rangevector/pkg/rangevec"
)

var countValuesReductionSchema = rangevec.ResultSchema{
	Columns: []rangevec.ColumnInfo{
		{Name: "timestamp", Type: rangevec.ColumnTimestamp},
		{Name: "counts", Type: rangevec.ColumnDigest},
	},
}

// CountValuesAggregator implements CountValues: per timestamp, groups equal
// values and counts them, then fans out one output range vector per
// distinct value observed anywhere in the group, labeled by
// formatDoubleKey(value).
type CountValuesAggregator struct {
	label               string
	maxDistinctPerGroup int
}

// NewCountValuesAggregator returns a RowAggregator that labels its fan-out
// output range vectors with label, capping the distinct-value fan-out of
// any single group at maxDistinctPerGroup (<=0 means unbounded) to bound
// output cardinality symmetrically with the sample limit.
func NewCountValuesAggregator(label string, maxDistinctPerGroup int) *CountValuesAggregator {
	return &CountValuesAggregator{label: label, maxDistinctPerGroup: maxDistinctPerGroup}
}

// formatDoubleKey is the canonical shortest round-trippable string form used
// to key CountValues buckets and to label its output series.
func formatDoubleKey(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (a *CountValuesAggregator) NewRowToMapInto() rangevec.Row {
	return rangevec.NewTransientRow(0, math.NaN())
}

func (a *CountValuesAggregator) Map(_ rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row {
	tr := outRow.(*rangevec.TransientRow)
	tr.Reset(row.GetLong(0), row.GetDouble(1))
	return tr
}

func (a *CountValuesAggregator) ReductionSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return countValuesReductionSchema
}

func (a *CountValuesAggregator) PresentationSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *CountValuesAggregator) NewAccumulator() Accumulator { return &countValuesAccumulator{} }

type countValuesAccumulator struct {
	counts map[string]float64
}

func (a *countValuesAccumulator) Reduce(row rangevec.Row) {
	if cr, ok := row.(*countValuesRow); ok {
		a.merge(cr.Counts)
		return
	}
	v := row.GetDouble(1)
	if skipNaN(v) {
		return
	}
	if a.counts == nil {
		a.counts = map[string]float64{}
	}
	a.counts[formatDoubleKey(v)]++
}

func (a *countValuesAccumulator) merge(other map[string]float64) {
	if a.counts == nil {
		a.counts = map[string]float64{}
	}
	for k, v := range other {
		a.counts[k] += v
	}
}

func (a *countValuesAccumulator) Row(ts int64) rangevec.Row {
	return &countValuesRow{Timestamp: ts, Counts: a.counts}
}

// countValuesRow carries a per-timestamp value->count map as an opaque
// intermediate, the way digestRow carries a t-digest for Quantile.
type countValuesRow struct {
	Timestamp int64
	Counts    map[string]float64
}

func (r *countValuesRow) GetLong(col int) int64 {
	if col == 0 {
		return r.Timestamp
	}
	return 0
}
func (r *countValuesRow) GetDouble(col int) float64 {
	if col == 0 {
		return float64(r.Timestamp)
	}
	return math.NaN()
}
func (r *countValuesRow) GetHistogram(int) rangevec.Histogram { return rangevec.Histogram{} }
func (r *countValuesRow) GetString(int) string                { return "" }

// Present fans each group out into one range vector per distinct value seen
// at any timestamp, filling NaN where that value wasn't present at t.
func (a *CountValuesAggregator) Present(rvs []rangevec.RangeVector, limit int, rangeParams rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	var out []rangevec.RangeVector
	for _, rv := range rvs {
		rows := rangevec.CollectRows(rv.Rows())
		steps := rangeParams.NumSteps()
		series := map[string][]float64{}
		order := []string{}
		for _, r := range rows {
			cr, ok := r.(*countValuesRow)
			if !ok {
				continue
			}
			idx := -1
			if rangeParams.StepMs > 0 {
				idx = int((cr.Timestamp - rangeParams.StartMs) / rangeParams.StepMs)
			}
			for valueKey, count := range cr.Counts {
				vals, seen := series[valueKey]
				if !seen {
					if a.maxDistinctPerGroup > 0 && len(order) >= a.maxDistinctPerGroup {
						return nil, badQuery("count_values group exceeds %d distinct values", a.maxDistinctPerGroup)
					}
					vals = make([]float64, steps)
					for j := range vals {
						vals[j] = math.NaN()
					}
					series[valueKey] = vals
					order = append(order, valueKey)
				}
				if idx >= 0 && idx < steps {
					vals[idx] = count
				}
			}
		}
		if limit > 0 && len(out)+len(order) > limit {
			return nil, badQuery("result has more than %d groups", limit)
		}
		for _, valueKey := range order {
			rows := make([]rangevec.Row, steps)
			for i := 0; i < steps; i++ {
				rows[i] = rangevec.NewTransientRow(rangeParams.At(i), series[valueKey][i])
			}
			key := rv.Key.WithLabel([]byte(a.label), []byte(valueKey))
			rp := rangeParams
			out = append(out, rangevec.NewRangeVector(key, rows, &rp))
		}
	}
	return out, nil
}
