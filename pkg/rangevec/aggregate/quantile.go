package aggregate

import (
	"math"

	"github.com/caio/go-tdigest/v3"
	"github.com/grafana/rangevector/pkg/rangevec"
)

var digestReductionSchema = rangevec.ResultSchema{
	Columns: []rangevec.ColumnInfo{
		{Name: "timestamp", Type: rangevec.ColumnTimestamp},
		{Name: "digest", Type: rangevec.ColumnDigest},
	},
}

// QuantileAggregator implements Quantile: each row's value feeds a bounded
// t-digest, digests merge across the reduce phase, and Present reads the
// quantile back out.
type QuantileAggregator struct {
	q float64
}

// NewQuantileAggregator returns a RowAggregator estimating quantile q, which
// must lie in [0,1]; validated by Make.
func NewQuantileAggregator(q float64) RowAggregator { return &QuantileAggregator{q: q} }

func (a *QuantileAggregator) NewRowToMapInto() rangevec.Row { return &digestRow{} }

func (a *QuantileAggregator) Map(_ rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row {
	dr := outRow.(*digestRow)
	dr.Timestamp = row.GetLong(0)
	v := row.GetDouble(1)
	dr.Digest = newDigest()
	if !skipNaN(v) {
		if err := dr.Digest.Add(v); err != nil {
			panic(err)
		}
	}
	return dr
}

func (a *QuantileAggregator) ReductionSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return digestReductionSchema
}

func (a *QuantileAggregator) PresentationSchema(rangevec.ResultSchema) rangevec.ResultSchema {
	return timestampColumnSchema
}

func (a *QuantileAggregator) NewAccumulator() Accumulator {
	return &digestAccumulator{digest: newDigest()}
}

func (a *QuantileAggregator) Present(rvs []rangevec.RangeVector, limit int, _ rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	if limit > 0 && len(rvs) > limit {
		return nil, badQuery("result has %d groups, exceeding limit %d", len(rvs), limit)
	}
	out := make([]rangevec.RangeVector, len(rvs))
	for i, rv := range rvs {
		rows := rangevec.CollectRows(rv.Rows())
		final := make([]rangevec.Row, len(rows))
		for j, r := range rows {
			dr := r.(*digestRow)
			var value float64
			if dr.Digest == nil || dr.Digest.Count() == 0 {
				value = math.NaN()
			} else {
				value = dr.Digest.Quantile(a.q)
			}
			final[j] = rangevec.NewTransientRow(dr.Timestamp, value)
		}
		out[i] = rangevec.NewRangeVector(rv.Key, final, rv.OutputRange)
	}
	return out, nil
}

// digestRow carries a t-digest as an opaque intermediate value; it exists
// because the digest itself has no meaningful double/string projection.
type digestRow struct {
	Timestamp int64
	Digest    *tdigest.TDigest
}

func (r *digestRow) GetLong(col int) int64 {
	if col == 0 {
		return r.Timestamp
	}
	return 0
}
func (r *digestRow) GetDouble(col int) float64 {
	if col == 0 {
		return float64(r.Timestamp)
	}
	return math.NaN()
}
func (r *digestRow) GetHistogram(int) rangevec.Histogram { return rangevec.Histogram{} }
func (r *digestRow) GetString(int) string                { return "" }

type digestAccumulator struct {
	digest *tdigest.TDigest
}

func (a *digestAccumulator) Reduce(row rangevec.Row) {
	dr, ok := row.(*digestRow)
	if !ok || dr.Digest == nil {
		return
	}
	mergeDigest(a.digest, dr.Digest)
}

func (a *digestAccumulator) Row(ts int64) rangevec.Row {
	return &digestRow{Timestamp: ts, Digest: a.digest}
}
