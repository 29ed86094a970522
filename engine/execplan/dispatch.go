package execplan

import (
	"context"

	"github.com/grafana/rangevector/queryctx"
)

// Dispatcher sends a plan off for execution and returns its raw (unmaterialized)
// result. A LocalDispatcher runs the plan in-process via Engine.ExecuteRaw,
// keeping intermediate (non-root) dispatches unmaterialized so a parent
// NonLeaf can keep composing over in-memory RangeVectors rather than
// round-tripping through the out-of-scope RecordWriter encoding. A remote
// implementation would serialize the plan, send it across the wire, and
// deserialize the response — that transport is an external collaborator
// (spec.md §6) and is not implemented here. Only the top-level caller of a
// query (outside the plan tree) calls Engine.Execute directly to get a
// materialized QueryResponse.
type Dispatcher interface {
	Dispatch(ctx context.Context, plan ExecPlan, session *queryctx.Session) (ExecResult, error)
}

// LocalDispatcher invokes Engine.ExecuteRaw in-process, used by leaves and
// composers that read from collaborators reachable without a network hop.
type LocalDispatcher struct {
	Engine *Engine
}

// NewLocalDispatcher returns a Dispatcher that executes plans against engine.
func NewLocalDispatcher(engine *Engine) *LocalDispatcher {
	return &LocalDispatcher{Engine: engine}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, plan ExecPlan, session *queryctx.Session) (ExecResult, error) {
	return d.Engine.ExecuteRaw(ctx, plan, session)
}
