// Package execplan implements the ExecPlan tree runtime: leaf and composing
// plan nodes, the transformer chain applied after doExecute, schema
// unification, and bounded materialization under a sample limit.
package execplan

import (
	"context"

	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/queryctx"
)

// ExecResult is what doExecute returns: the range vectors a node produced
// and the schema describing their rows.
type ExecResult struct {
	RangeVectors []rangevec.RangeVector
	Schema       rangevec.ResultSchema
}

// ExecPlan is one node of the plan tree. Leaves implement DoExecute
// directly; NonLeaf implements it by dispatching to Children and calling
// Compose. Every node carries a dataset tag, a dispatcher, an ordered
// transformer chain, and an enforceLimit flag.
type ExecPlan interface {
	// PlanClass names the concrete node type for printTree and metrics,
	// e.g. "SelectRawSeriesPlan", "SumPlan".
	PlanClass() string
	Dataset() string
	Dispatcher() Dispatcher
	Children() []ExecPlan
	Transformers() []RangeVectorTransformer
	EnforceLimit() bool
	// DoExecute produces this node's raw (pre-transformer) result. Leaves
	// read from a ChunkSource; NonLeaf dispatches to Children and composes.
	DoExecute(ctx context.Context, session *queryctx.Session) (ExecResult, error)
	// Args renders this node's constructor arguments for printTree, e.g.
	// "dataset=metrics, shard=3".
	Args() string
}

// BasePlan holds the fields every concrete ExecPlan shares. Concrete plan
// types embed it and add their own DoExecute/PlanClass/Args.
type BasePlan struct {
	DatasetName      string
	DispatcherImpl   Dispatcher
	ChildPlans       []ExecPlan
	TransformerChain []RangeVectorTransformer
	EnforceLimitFlag bool
}

func (p *BasePlan) Dataset() string                        { return p.DatasetName }
func (p *BasePlan) Dispatcher() Dispatcher                  { return p.DispatcherImpl }
func (p *BasePlan) Children() []ExecPlan                    { return p.ChildPlans }
func (p *BasePlan) Transformers() []RangeVectorTransformer  { return p.TransformerChain }
func (p *BasePlan) EnforceLimit() bool                      { return p.EnforceLimitFlag }

// AddTransformer appends tr to the node's transformer chain, the way a
// planner incrementally builds up a node's post-processing stages.
func (p *BasePlan) AddTransformer(tr RangeVectorTransformer) {
	p.TransformerChain = append(p.TransformerChain, tr)
}

// NewBasePlan returns a BasePlan with EnforceLimit defaulting to true, per
// the spec'd default.
func NewBasePlan(dataset string, dispatcher Dispatcher, children []ExecPlan) BasePlan {
	return BasePlan{
		DatasetName:      dataset,
		DispatcherImpl:   dispatcher,
		ChildPlans:       children,
		EnforceLimitFlag: true,
	}
}
