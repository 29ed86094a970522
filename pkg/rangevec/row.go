// Package rangevec implements the row and range-vector data model that the
// aggregation and exec-plan engines operate on: typed sample rows, a
// dimensional key identifying one time series, and the serialized container
// that a plan node materializes rows into before returning them to a caller.
package rangevec

import "math"

// Row exposes positional accessors over one timestamped sample. Column 0 is
// always a millisecond timestamp; which of GetDouble/GetHistogram/GetString
// is meaningful for a given column is determined by the owning ResultSchema.
type Row interface {
	GetLong(col int) int64
	GetDouble(col int) float64
	GetHistogram(col int) Histogram
	GetString(col int) string
}

// TransientRow is a mutable, single-shot row used to carry intermediate
// values between the map and reduce phases of an aggregation, and as the
// scratch row handed to RowAggregator.Map/Reduce implementations.
type TransientRow struct {
	Timestamp int64
	Value     float64
	Hist      Histogram
	Str       string
}

// NewTransientRow returns a TransientRow holding (ts, value) as given;
// callers pass NaN as value when no data point exists at ts.
func NewTransientRow(ts int64, value float64) *TransientRow {
	return &TransientRow{Timestamp: ts, Value: value}
}

func (r *TransientRow) GetLong(col int) int64 {
	if col == 0 {
		return r.Timestamp
	}
	return 0
}

func (r *TransientRow) GetDouble(col int) float64 {
	if col == 0 {
		return float64(r.Timestamp)
	}
	return r.Value
}

func (r *TransientRow) GetHistogram(int) Histogram { return r.Hist }

func (r *TransientRow) GetString(int) string { return r.Str }

// Reset rewrites the row in place so a single TransientRow instance can be
// reused across many timestamps without allocating.
func (r *TransientRow) Reset(ts int64, value float64) {
	r.Timestamp = ts
	r.Value = value
	r.Hist = Histogram{}
	r.Str = ""
}

// IsNaN reports whether v represents an absent sample.
func IsNaN(v float64) bool { return math.IsNaN(v) }
