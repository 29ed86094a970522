package rangevec

// RowIterator is a forward-only, single-shot cursor over a RangeVector's
// rows, ascending by timestamp.
type RowIterator interface {
	// Next advances the cursor and reports whether a row is available.
	Next() bool
	// At returns the row the cursor currently points at. Valid only after
	// a call to Next returned true.
	At() Row
}

// Restartable is implemented by a RowIterator factory that may be invoked
// more than once to produce independent cursors over the same data, as
// opposed to a single-shot source that is exhausted after one pass.
type Restartable interface {
	Restartable() bool
}

// OutputRange describes the shared step grid that every range vector in one
// query result is aligned to.
type OutputRange struct {
	StartMs int64
	StepMs  int64
	EndMs   int64
}

// NumSteps returns the number of timestamps on the grid, inclusive of both
// endpoints.
func (r OutputRange) NumSteps() int {
	if r.StepMs <= 0 {
		return 0
	}
	return int((r.EndMs-r.StartMs)/r.StepMs) + 1
}

// At returns the millisecond timestamp of step i on the grid.
func (r OutputRange) At(i int) int64 { return r.StartMs + int64(i)*r.StepMs }

// RangeVector is one labeled time series: a key, a lazy row cursor, and the
// output range it was computed over (nil when the vector is not aligned to
// a fixed step grid, e.g. raw unaggregated series).
type RangeVector struct {
	Key         RangeVectorKey
	Rows        func() RowIterator
	OutputRange *OutputRange
}

// sliceIterator adapts a pre-materialized row slice to RowIterator.
type sliceIterator struct {
	rows []Row
	pos  int
}

// NewSliceIterator returns a restartable-friendly RowIterator over rows.
func NewSliceIterator(rows []Row) RowIterator {
	return &sliceIterator{rows: rows, pos: -1}
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.rows)
}

func (it *sliceIterator) At() Row { return it.rows[it.pos] }

// NewRangeVector builds a RangeVector whose Rows closure is restartable:
// each call returns a fresh cursor over the same backing rows slice.
func NewRangeVector(key RangeVectorKey, rows []Row, outputRange *OutputRange) RangeVector {
	return RangeVector{
		Key:         key,
		Rows:        func() RowIterator { return NewSliceIterator(rows) },
		OutputRange: outputRange,
	}
}

// CollectRows drains an iterator into a slice, in cursor order.
func CollectRows(it RowIterator) []Row {
	var out []Row
	for it.Next() {
		out = append(out, it.At())
	}
	return out
}
