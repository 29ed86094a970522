package aggregate

// Params bundles the optional per-operator parameters Make validates before
// constructing a RowAggregator. Only the fields relevant to op need be set.
type Params struct {
	K                   int
	Q                   float64
	Label               string
	MaxCountValuesPerGroup int
}

// Make constructs the RowAggregator for op, validating op-specific
// parameters and returning a BadQueryException when they're out of range.
// This is the Go analogue of FiloDB's AggregationOperator enum plus its
// RowAggregator.apply factory method: spec.md leaves construction/dispatch
// implicit, so this factory is the concrete binding of "operator name +
// parameters" to a constructed aggregator.
func Make(op Operator, p Params) (RowAggregator, error) {
	switch op {
	case Sum:
		return NewSumAggregator(), nil
	case Avg:
		return NewAvgAggregator(), nil
	case Min:
		return NewMinAggregator(), nil
	case Max:
		return NewMaxAggregator(), nil
	case Count:
		return NewCountAggregator(), nil
	case StdVar:
		return NewStdVarAggregator(), nil
	case StdDev:
		return NewStdDevAggregator(), nil
	case Group:
		return NewGroupAggregator(), nil
	case TopK:
		if p.K <= 0 {
			return nil, badQuery("topk: k must be positive, got %d", p.K)
		}
		return NewTopKAggregator(p.K), nil
	case BottomK:
		if p.K <= 0 {
			return nil, badQuery("bottomk: k must be positive, got %d", p.K)
		}
		return NewBottomKAggregator(p.K), nil
	case Quantile:
		if p.Q < 0 || p.Q > 1 {
			return nil, badQuery("quantile: q must be in [0,1], got %v", p.Q)
		}
		return NewQuantileAggregator(p.Q), nil
	case CountValues:
		if p.Label == "" {
			return nil, badQuery("count_values: label must be non-empty")
		}
		return NewCountValuesAggregator(p.Label, p.MaxCountValuesPerGroup), nil
	default:
		return nil, badQuery("unknown aggregation operator %v", op)
	}
}
