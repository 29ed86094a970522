// Package aggregate implements the row-aggregator algebra (map/reduce/present
// per operator) and the streaming two-phase RangeVectorAggregator that drives
// it over many grouped range vectors.
package aggregate

import (
	"math"

	"github.com/grafana/rangevector/pkg/rangevec"
)

// Operator names one aggregation kind. Validated parameters (k, q, label)
// live on the concrete RowAggregator values returned by Make.
type Operator int

const (
	Sum Operator = iota
	Avg
	Min
	Max
	Count
	StdVar
	StdDev
	Group
	TopK
	BottomK
	Quantile
	CountValues
)

func (o Operator) String() string {
	switch o {
	case Sum:
		return "sum"
	case Avg:
		return "avg"
	case Min:
		return "min"
	case Max:
		return "max"
	case Count:
		return "count"
	case StdVar:
		return "stdvar"
	case StdDev:
		return "stddev"
	case Group:
		return "group"
	case TopK:
		return "topk"
	case BottomK:
		return "bottomk"
	case Quantile:
		return "quantile"
	case CountValues:
		return "count_values"
	default:
		return "unknown"
	}
}

// Accumulator holds one group's per-timestamp intermediate state. Reduce
// folds one already-mapped intermediate row into the accumulator; Row
// materializes the accumulator's current state back out as a row at ts, in
// the shape described by the owning RowAggregator's ReductionSchema.
type Accumulator interface {
	Reduce(row rangevec.Row)
	Row(ts int64) rangevec.Row
}

// RowAggregator is the uniform per-operator contract: a leaf-side row
// projection (Map), an intermediate accumulation algebra (NewAccumulator +
// Accumulator.Reduce), and a final user-visible projection (Present).
type RowAggregator interface {
	// NewRowToMapInto returns a fresh mutable row Map can project into.
	NewRowToMapInto() rangevec.Row
	// Map projects one source row into the intermediate shape described by
	// ReductionSchema. key is the key of the input range vector the row
	// came from, not the group key the row is reduced under; TopK/BottomK
	// record it as the candidate's label, the other operators ignore it.
	Map(key rangevec.RangeVectorKey, row rangevec.Row, outRow rangevec.Row) rangevec.Row
	// ReductionSchema describes the shape Map produces and Accumulator.Row
	// returns, given the schema of the rows flowing into Map.
	ReductionSchema(source rangevec.ResultSchema) rangevec.ResultSchema
	// NewAccumulator returns a zero-valued accumulator for one group+timestamp.
	NewAccumulator() Accumulator
	// Present translates a set of fully-reduced per-group intermediate
	// range vectors into the operator's final output range vectors.
	// rangeParams supplies the shared output grid so fan-out operators
	// (TopK/BottomK/CountValues) can fill unselected timestamps with NaN.
	Present(rvs []rangevec.RangeVector, limit int, rangeParams rangevec.OutputRange) ([]rangevec.RangeVector, error)
	// PresentationSchema describes Present's output row shape.
	PresentationSchema(source rangevec.ResultSchema) rangevec.ResultSchema
}

// timestampColumnSchema is the reduction/presentation schema shared by every
// scalar-valued operator (Sum, Min, Max, Group, and Avg/StdVar/StdDev's
// presented form): one timestamp column, one double column.
var timestampColumnSchema = rangevec.ResultSchema{
	Columns: []rangevec.ColumnInfo{
		{Name: "timestamp", Type: rangevec.ColumnTimestamp},
		{Name: "value", Type: rangevec.ColumnDouble},
	},
}

// skipNaN reports whether v should be ignored by a NaN-skipping combine.
func skipNaN(v float64) bool { return math.IsNaN(v) }
