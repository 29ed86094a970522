// Package queryctx carries the per-query context, session, and accumulated
// statistics that flow through every node of an ExecPlan tree.
package queryctx

import (
	"github.com/google/uuid"
)

// PlannerParams is the subset of planner-decided parameters the runtime
// needs at execution time: the query deadline and the sample cap.
type PlannerParams struct {
	QueryTimeoutMillis int64
	SampleLimit        int
}

// Context identifies one query and carries the parameters decided at plan
// time. It is immutable once constructed; Session carries the mutable
// per-execution state (stats) around it.
type Context struct {
	QueryID          string
	SubmitTimeMillis int64
	PlannerParams    PlannerParams
}

// New returns a Context with a fresh query ID, submitted at submitTimeMillis.
func New(plannerParams PlannerParams, submitTimeMillis int64) *Context {
	return &Context{
		QueryID:          uuid.NewString(),
		SubmitTimeMillis: submitTimeMillis,
		PlannerParams:    plannerParams,
	}
}

// Expired reports whether nowMillis has crossed the query's timeout
// deadline, checked at each execute() step boundary per the concurrency
// model's cancellation rules.
func (c *Context) Expired(nowMillis int64) bool {
	return nowMillis-c.SubmitTimeMillis >= c.PlannerParams.QueryTimeoutMillis
}

// Session bundles a Context with the mutable QueryStats accumulated while
// executing it. One Session is created per top-level query and threaded
// through the whole ExecPlan tree.
type Session struct {
	Context *Context
	Stats   *QueryStats
}

// NewSession returns a Session wrapping ctx with fresh, zeroed stats.
func NewSession(ctx *Context) *Session {
	return &Session{Context: ctx, Stats: &QueryStats{}}
}
