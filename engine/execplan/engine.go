package execplan

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/grafana/rangevector/internal/metrics"
	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/queryctx"
)

// Engine is the runtime every ExecPlan node's Dispatcher ultimately bottoms
// out in: it schedules DoExecute, folds the transformer chain over the
// result, and materializes the surviving range vectors into
// SerializedRangeVectors under the query's sample limit. One Engine is
// shared by every LocalDispatcher in a process.
type Engine struct {
	Scheduler            Scheduler
	Metrics              *metrics.Metrics
	Logger               log.Logger
	NewRecordWriter      func() rangevec.RecordWriter
	FastReduceMaxWindows int
}

// NewEngine returns an Engine wired to the given collaborators.
func NewEngine(scheduler Scheduler, m *metrics.Metrics, logger log.Logger, newRecordWriter func() rangevec.RecordWriter, fastReduceMaxWindows int) *Engine {
	return &Engine{
		Scheduler:            scheduler,
		Metrics:              m,
		Logger:               logger,
		NewRecordWriter:      newRecordWriter,
		FastReduceMaxWindows: fastReduceMaxWindows,
	}
}

// Execute runs plan to a fully materialized QueryResponse: step 1
// (timeout check, scheduled DoExecute), step 2 (transformer chain fold,
// empty-schema short-circuit, materialization and sample-limit enforcement).
func (e *Engine) Execute(ctx context.Context, plan ExecPlan, session *queryctx.Session) QueryResponse {
	start := time.Now()
	result, err := e.runPipeline(ctx, plan, session)
	e.observe(plan, start, err)
	if err != nil {
		return errorResponse(session.Context.QueryID, session.Stats.Snapshot(), err)
	}

	if len(result.Schema.Columns) == 0 {
		return successResponse(session.Context.QueryID, session.Stats.Snapshot(), QueryResult{ResultSchema: result.Schema})
	}

	queryResult, err := e.materialize(plan, session, result)
	if err != nil {
		e.Metrics.IncPlanError(plan.PlanClass(), errKindFor(err))
		return errorResponse(session.Context.QueryID, session.Stats.Snapshot(), err)
	}
	return successResponse(session.Context.QueryID, session.Stats.Snapshot(), queryResult)
}

// ExecuteRaw runs plan through step 1 and step 2's transformer chain but
// skips materialization, returning the raw in-memory range vectors. Used
// internally to resolve ExecPlanFuncArgs parameter sub-plans, which are
// reduced straight into a ScalarRangeVector without ever touching a
// RecordWriter.
func (e *Engine) ExecuteRaw(ctx context.Context, plan ExecPlan, session *queryctx.Session) (ExecResult, error) {
	return e.runPipeline(ctx, plan, session)
}

func (e *Engine) observe(plan ExecPlan, start time.Time, err error) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.ObservePlanExecution(plan.PlanClass(), plan.Dataset(), time.Since(start).Seconds())
	if err != nil {
		e.Metrics.IncPlanError(plan.PlanClass(), errKindFor(err))
	}
}

// runPipeline implements §4.D steps 1-2 up to (not including) materialization:
// a timeout check, scheduled DoExecute, a second timeout check, then the
// transformer chain folded over the result, skipping any transformer that
// can't handle an empty schema while the schema is still empty.
func (e *Engine) runPipeline(ctx context.Context, plan ExecPlan, session *queryctx.Session) (ExecResult, error) {
	if session.Context.Expired(time.Now().UnixMilli()) {
		level.Warn(e.Logger).Log("msg", "query already expired at dispatch", "query_id", session.Context.QueryID, "plan_class", plan.PlanClass())
		return ExecResult{}, wrapStage(ErrQueryTimeout, "execute", plan.PlanClass())
	}

	result, err := e.Scheduler.Run(ctx, func() (ExecResult, error) {
		return plan.DoExecute(ctx, session)
	})
	if err != nil {
		return ExecResult{}, wrapStage(err, "doExecute", plan.PlanClass())
	}

	if session.Context.Expired(time.Now().UnixMilli()) {
		return ExecResult{}, wrapStage(ErrQueryTimeout, "transform", plan.PlanClass())
	}

	sampleLimit := session.Context.PlannerParams.SampleLimit
	for _, tr := range plan.Transformers() {
		if len(result.Schema.Columns) == 0 && !tr.CanHandleEmptySchemas() {
			continue
		}

		paramRVs := make([]ScalarRangeVector, 0, len(tr.ParamPlans()))
		for _, p := range tr.ParamPlans() {
			paramRVs = append(paramRVs, p.Resolve(ctx, e, session))
		}

		rvs, schema, err := tr.Apply(ctx, result.RangeVectors, session, sampleLimit, result.Schema, paramRVs)
		if err != nil {
			return ExecResult{}, wrapStage(err, "transform:"+tr.Name(), plan.PlanClass())
		}
		result = ExecResult{RangeVectors: rvs, Schema: schema}
	}

	return result, nil
}

// materialize serializes result's range vectors via a Builder, enforcing
// plan.EnforceLimit()'s sample cap across the whole result (not per-vector),
// filtering out zero-row vectors, and folding byte/key-size accounting into
// session.Stats.
func (e *Engine) materialize(plan ExecPlan, session *queryctx.Session, result ExecResult) (QueryResult, error) {
	builder := rangevec.NewBuilder(e.NewRecordWriter)

	serialized := make([]*rangevec.SerializedRangeVector, 0, len(result.RangeVectors))
	var totalRows int64
	for _, rv := range result.RangeVectors {
		srv, err := builder.Serialize(rv, result.Schema, plan.PlanClass())
		if err != nil {
			return QueryResult{}, wrapStage(err, "materialize", plan.PlanClass())
		}
		totalRows += srv.NumRowsSerialized()
		if srv.NumRowsSerialized() == 0 {
			continue
		}
		serialized = append(serialized, srv)
	}

	sampleLimit := session.Context.PlannerParams.SampleLimit
	if plan.EnforceLimit() && sampleLimit > 0 && totalRows > int64(sampleLimit) {
		return QueryResult{}, &SampleLimitExceededError{Limit: sampleLimit, Got: totalRows}
	}

	var totalBytes int64
	for _, srv := range serialized {
		totalBytes += srv.Bytes() + srv.KeySize()
	}
	session.Stats.AddSamples(totalRows)
	session.Stats.AddBytes(totalBytes)

	if e.Metrics != nil {
		e.Metrics.ObserveResultSamples(plan.PlanClass(), plan.Dataset(), int(totalRows))
	}

	stats := session.Stats.Snapshot()
	return QueryResult{
		ResultSchema:         result.Schema,
		RangeVectors:         serialized,
		ResultCouldBePartial: stats.ResultCouldBePartial,
		PartialResultsReason: stats.PartialResultsReason,
	}, nil
}
