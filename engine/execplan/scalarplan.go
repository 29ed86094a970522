package execplan

import (
	"context"
	"math"

	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/queryctx"
)

// ScalarRangeVector is a transformer parameter that yields one double value
// per timestamp — either a literal constant or the reduced output of a
// nested ExecPlanFuncArgs sub-plan (e.g. a dynamic `k` or `q` computed by
// its own query).
type ScalarRangeVector interface {
	ValueAt(ts int64) float64
}

type fixedScalar struct{ value float64 }

func (s fixedScalar) ValueAt(int64) float64 { return s.value }

// ScalarFixedDouble returns a ScalarRangeVector constant at every timestamp.
// A dispatched parameter sub-plan that returns an empty result falls back
// to ScalarFixedDouble(NaN).
func ScalarFixedDouble(v float64) ScalarRangeVector { return fixedScalar{value: v} }

type scalarFromRangeVector struct {
	values map[int64]float64
}

// NewScalarRangeVector adapts a materialized single-series RangeVector into
// a ScalarRangeVector, indexing its rows by timestamp.
func NewScalarRangeVector(rv rangevec.RangeVector) ScalarRangeVector {
	values := map[int64]float64{}
	it := rv.Rows()
	for it.Next() {
		r := it.At()
		values[r.GetLong(0)] = r.GetDouble(1)
	}
	return scalarFromRangeVector{values: values}
}

func (s scalarFromRangeVector) ValueAt(ts int64) float64 {
	v, ok := s.values[ts]
	if !ok {
		return math.NaN()
	}
	return v
}

// ExecPlanFuncArgs is a parameter sub-plan: a nested ExecPlan dispatched and
// reduced to a single ScalarRangeVector before the owning transformer runs.
type ExecPlanFuncArgs struct {
	Plan ExecPlan
}

// Resolve dispatches the parameter plan through engine and reduces its
// result to a ScalarRangeVector. An empty or errored result yields
// ScalarFixedDouble(NaN) rather than failing the parent query — a parameter
// plan's own failure degrades gracefully into "no override", matching the
// partial-result philosophy for non-essential sub-plans.
func (a *ExecPlanFuncArgs) Resolve(ctx context.Context, engine *Engine, session *queryctx.Session) ScalarRangeVector {
	result, err := engine.ExecuteRaw(ctx, a.Plan, session)
	if err != nil || len(result.RangeVectors) == 0 {
		return ScalarFixedDouble(math.NaN())
	}
	return NewScalarRangeVector(result.RangeVectors[0])
}
