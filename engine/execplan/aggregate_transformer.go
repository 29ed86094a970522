package execplan

import (
	"context"
	"fmt"

	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/pkg/rangevec/aggregate"
	"github.com/grafana/rangevector/queryctx"
)

// AggregateTransformer wires a RangeVectorAggregator/RowAggregator pair
// into the transformer chain. The same transformer type runs at two
// different points of the plan tree with two different settings: attached
// to a leaf with SkipMapPhase=false it runs the map+reduce phase over raw
// sample rows; reattached to a composing NonLeaf with SkipMapPhase=true it
// merges the already-reduced intermediates its children each produced. Only
// the instance marked FinalPresent also runs the operator's Present step,
// turning reduced intermediates into the query's final output rows —
// everywhere else in the tree the transformer stops at the reduction
// schema so intermediates keep flowing upward unpresented.
type AggregateTransformer struct {
	BaseTransformer

	Op             aggregate.Operator
	Agg            aggregate.RowAggregator
	Grouping       aggregate.Grouping
	SkipMapPhase   bool
	FinalPresent   bool
	MaxConcurrency int64
}

// NewAggregateTransformer returns a transformer driving op/agg, grouping
// input range vectors via grouping.
func NewAggregateTransformer(op aggregate.Operator, agg aggregate.RowAggregator, grouping aggregate.Grouping, skipMapPhase, finalPresent bool, maxConcurrency int64) *AggregateTransformer {
	return &AggregateTransformer{
		Op:             op,
		Agg:            agg,
		Grouping:       grouping,
		SkipMapPhase:   skipMapPhase,
		FinalPresent:   finalPresent,
		MaxConcurrency: maxConcurrency,
	}
}

func (t *AggregateTransformer) Name() string { return "Aggregate" }

func (t *AggregateTransformer) Args() string {
	return fmt.Sprintf("op=%s, skipMapPhase=%v, finalPresent=%v", t.Op, t.SkipMapPhase, t.FinalPresent)
}

func (t *AggregateTransformer) CanHandleEmptySchemas() bool { return false }

func (t *AggregateTransformer) Apply(ctx context.Context, rvs []rangevec.RangeVector, session *queryctx.Session, sampleLimit int, schema rangevec.ResultSchema, paramRVs []ScalarRangeVector) ([]rangevec.RangeVector, rangevec.ResultSchema, error) {
	rangeParams := outputRangeOf(rvs)

	rva := aggregate.NewRangeVectorAggregator(t.Agg, t.MaxConcurrency)
	reduced, err := rva.MapReduce(ctx, t.SkipMapPhase, rvs, t.Grouping)
	if err != nil {
		return nil, rangevec.ResultSchema{}, err
	}

	if !t.FinalPresent {
		return reduced, t.Agg.ReductionSchema(schema), nil
	}

	presented, err := rva.Present(reduced, sampleLimit, rangeParams)
	if err != nil {
		return nil, rangevec.ResultSchema{}, err
	}
	return presented, t.Agg.PresentationSchema(schema), nil
}

// outputRangeOf recovers the shared output grid from the first input vector
// that carries one; reduced intermediate vectors produced by MapReduce don't
// set OutputRange, so this must be read off the pre-reduce input.
func outputRangeOf(rvs []rangevec.RangeVector) rangevec.OutputRange {
	for _, rv := range rvs {
		if rv.OutputRange != nil {
			return *rv.OutputRange
		}
	}
	return rangevec.OutputRange{}
}
