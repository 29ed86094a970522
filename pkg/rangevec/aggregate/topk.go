package aggregate

import (
	"math"
	"sort"

	"github.com/grafana/rangevector/pkg/rangevec"
)

// topKAggregator backs both TopK and BottomK: a k-slot ranked intermediate
// row, sharing the same merge and fan-out logic and differing only in sort
// direction and sentinel sign.
type topKAggregator struct {
	k   int
	max bool // true selects the k largest values (TopK), false the k smallest (BottomK)
}

// NewTopKAggregator returns a RowAggregator selecting the k largest values
// per timestamp. k must be a positive integer; validated by Make.
func NewTopKAggregator(k int) RowAggregator { return &topKAggregator{k: k, max: true} }

// NewBottomKAggregator returns a RowAggregator selecting the k smallest
// values per timestamp.
func NewBottomKAggregator(k int) RowAggregator { return &topKAggregator{k: k, max: false} }

func (a *topKAggregator) sentinel() float64 {
	if a.max {
		return -math.MaxFloat64
	}
	return math.MaxFloat64
}

func (a *topKAggregator) reductionSchema() rangevec.ResultSchema {
	cols := []rangevec.ColumnInfo{{Name: "timestamp", Type: rangevec.ColumnTimestamp}}
	for i := 0; i < a.k; i++ {
		cols = append(cols, rangevec.ColumnInfo{Name: "value", Type: rangevec.ColumnDouble})
		cols = append(cols, rangevec.ColumnInfo{Name: "label", Type: rangevec.ColumnString})
	}
	return rangevec.ResultSchema{Columns: cols}
}

func (a *topKAggregator) NewRowToMapInto() rangevec.Row {
	return rangevec.NewMultiColumnRow(0, a.k, a.k)
}

func (a *topKAggregator) Map(key rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row {
	mr := outRow.(*rangevec.MultiColumnRow)
	mr.Timestamp = row.GetLong(0)
	v := row.GetDouble(1)
	sentinel := a.sentinel()
	for i := 0; i < a.k; i++ {
		mr.Doubles[i] = sentinel
		mr.Strings[i] = ""
	}
	// A NaN sample at t is never a candidate at t, even with unfilled slots.
	if !skipNaN(v) {
		mr.Doubles[0] = v
		mr.Strings[0] = key.MapKey()
	}
	return mr
}

func (a *topKAggregator) ReductionSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return a.reductionSchema()
}

func (a *topKAggregator) PresentationSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *topKAggregator) NewAccumulator() Accumulator {
	return newTopKAccumulator(a.k, a.max)
}

type rankedCandidate struct {
	value float64
	label string
}

type topKAccumulator struct {
	k      int
	max    bool
	values []float64
	labels []string
}

func newTopKAccumulator(k int, max bool) *topKAccumulator {
	sentinel := -math.MaxFloat64
	if !max {
		sentinel = math.MaxFloat64
	}
	values := make([]float64, k)
	labels := make([]string, k)
	for i := range values {
		values[i] = sentinel
	}
	return &topKAccumulator{k: k, max: max, values: values, labels: labels}
}

// Reduce merges the accumulator's current k-slot ranking with the k
// candidates carried by row, keeping the k best overall. Ties are broken by
// label ordering, giving a deterministic merge independent of arrival order
// (the stable-merge requirement in spec, since there is no wall-clock
// insertion order to break ties by in a parallel map phase).
func (a *topKAccumulator) Reduce(row rangevec.Row) {
	cands := make([]rankedCandidate, 0, 2*a.k)
	for i := 0; i < a.k; i++ {
		if a.labels[i] != "" {
			cands = append(cands, rankedCandidate{a.values[i], a.labels[i]})
		}
	}
	mr, ok := row.(*rangevec.MultiColumnRow)
	if ok {
		for i := 0; i < a.k && i < len(mr.Strings); i++ {
			if mr.Strings[i] != "" {
				cands = append(cands, rankedCandidate{mr.Doubles[i], mr.Strings[i]})
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].value != cands[j].value {
			if a.max {
				return cands[i].value > cands[j].value
			}
			return cands[i].value < cands[j].value
		}
		return cands[i].label < cands[j].label
	})
	sentinel := -math.MaxFloat64
	if !a.max {
		sentinel = math.MaxFloat64
	}
	for i := 0; i < a.k; i++ {
		if i < len(cands) {
			a.values[i], a.labels[i] = cands[i].value, cands[i].label
		} else {
			a.values[i], a.labels[i] = sentinel, ""
		}
	}
}

func (a *topKAccumulator) Row(ts int64) rangevec.Row {
	mr := rangevec.NewMultiColumnRow(ts, a.k, a.k)
	copy(mr.Doubles, a.values)
	copy(mr.Strings, a.labels)
	return mr
}

// Present fans a single ranked group out into one output range vector per
// label that ever appeared in a top/bottom-k slot, filling NaN at every
// timestamp where that label wasn't selected.
func (a *topKAggregator) Present(rvs []rangevec.RangeVector, limit int, rangeParams rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	var out []rangevec.RangeVector
	for _, rv := range rvs {
		rows := rangevec.CollectRows(rv.Rows())
		steps := rangeParams.NumSteps()
		series := map[string][]float64{}
		order := []string{}
		for _, r := range rows {
			ts := r.GetLong(0)
			idx := -1
			if rangeParams.StepMs > 0 {
				idx = int((ts - rangeParams.StartMs) / rangeParams.StepMs)
			}
			mr, ok := r.(*rangevec.MultiColumnRow)
			if !ok {
				continue
			}
			for i := 0; i < a.k; i++ {
				label := mr.Strings[i]
				if label == "" {
					continue
				}
				vals, seen := series[label]
				if !seen {
					vals = make([]float64, steps)
					for j := range vals {
						vals[j] = math.NaN()
					}
					series[label] = vals
					order = append(order, label)
				}
				if idx >= 0 && idx < steps {
					vals[idx] = mr.Doubles[i]
				}
			}
		}
		if limit > 0 && len(out)+len(order) > limit {
			return nil, badQuery("result has more than %d groups", limit)
		}
		for _, label := range order {
			rows := make([]rangevec.Row, steps)
			for i := 0; i < steps; i++ {
				rows[i] = rangevec.NewTransientRow(rangeParams.At(i), series[label][i])
			}
			key := rv.Key.WithLabel([]byte("series"), []byte(label))
			rp := rangeParams
			out = append(out, rangevec.NewRangeVector(key, rows, &rp))
		}
	}
	return out, nil
}
