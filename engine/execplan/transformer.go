package execplan

import (
	"context"

	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/queryctx"
)

// RangeVectorTransformer is one post-processing stage applied, in order,
// after a plan node's DoExecute. Each stage sees the full row stream and
// schema produced so far and can replace both — the aggregation map/reduce
// transformer, a rate/delta transformer, a limit transformer, and so on all
// implement this.
type RangeVectorTransformer interface {
	// Name identifies the transformer for printTree, e.g. "PeriodicSamples".
	Name() string
	// Args renders this transformer's constructor arguments for printTree.
	Args() string
	// CanHandleEmptySchemas reports whether Apply should still run when the
	// incoming schema is empty (no data at all). Most transformers don't —
	// engine.go skips them and short-circuits to an empty result.
	CanHandleEmptySchemas() bool
	// ParamPlans lists any nested sub-plans this transformer needs resolved
	// to a ScalarRangeVector before Apply runs (e.g. a dynamic `k` or `q`).
	// Most transformers have none.
	ParamPlans() []*ExecPlanFuncArgs
	// Apply runs the transformation, receiving paramRVs already resolved in
	// the same order as ParamPlans.
	Apply(ctx context.Context, rvs []rangevec.RangeVector, session *queryctx.Session, sampleLimit int, schema rangevec.ResultSchema, paramRVs []ScalarRangeVector) ([]rangevec.RangeVector, rangevec.ResultSchema, error)
}

// BaseTransformer supplies the common no-param, empty-schema-skipping
// defaults; concrete transformers embed it and override what they need.
type BaseTransformer struct{}

func (BaseTransformer) CanHandleEmptySchemas() bool     { return false }
func (BaseTransformer) ParamPlans() []*ExecPlanFuncArgs { return nil }
