package execplan

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/grafana/rangevector/internal/metrics"
	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/queryctx"
)

// defaultFastReduceMaxWindows is used when a NonLeaf is built without an
// explicit fastreduce-max-windows override.
const defaultFastReduceMaxWindows = 50

// defaultNonLeafConcurrency bounds the worker pool used once a NonLeaf's
// child count reaches its fastreduce-max-windows threshold.
const defaultNonLeafConcurrency = 8

// ComposeFunc merges the ExecResults of a NonLeaf's successfully dispatched
// children into the node's own combined result. The default, concatenating
// composition, is enough for a shard-union leaf-of-leaves; an aggregating
// NonLeaf instead relies on its own AggregateTransformer (run afterward, in
// the transformer chain, with skipMapPhase=true) to reduce the concatenated
// intermediates, so Compose stays simple even there.
type ComposeFunc func(childResults []ExecResult, reducer rangevec.SchemaReducer) (ExecResult, error)

// defaultCompose concatenates every child's range vectors and reduces their
// schemas left to right.
func defaultCompose(childResults []ExecResult, reducer rangevec.SchemaReducer) (ExecResult, error) {
	schemas := make([]rangevec.ResultSchema, len(childResults))
	var rvs []rangevec.RangeVector
	for i, r := range childResults {
		schemas[i] = r.Schema
		rvs = append(rvs, r.RangeVectors...)
	}
	schema, err := rangevec.ReduceSchemas(reducer, schemas...)
	if err != nil {
		return ExecResult{}, err
	}
	return ExecResult{RangeVectors: rvs, Schema: schema}, nil
}

// NonLeaf composes the results of one or more child ExecPlans per spec.md
// §4.E: dispatch every child (sequentially below FastReduceMaxWindows,
// bounded-parallel at or above it, grounded on
// _examples/grafana-tempo/cmd/tempo-federated-querier/querier.go's FederatedQuerier.QueryAllInstances
// positional-index dispatch), reduce their schemas, compose their range
// vectors, and propagate partial-result state for any child that failed.
type NonLeaf struct {
	BasePlan

	Class                string
	Compose              ComposeFunc
	SchemaReducer        rangevec.SchemaReducer
	FastReduceMaxWindows int
	Concurrency          int
	Metrics              *metrics.Metrics
	Logger               log.Logger
}

// NewNonLeaf returns a NonLeaf named class, composing children with the
// default concatenating Compose and DefaultSchemaReducer.
func NewNonLeaf(class string, dataset string, dispatcher Dispatcher, children []ExecPlan, logger log.Logger) *NonLeaf {
	return &NonLeaf{
		BasePlan:             NewBasePlan(dataset, dispatcher, children),
		Class:                class,
		Compose:              defaultCompose,
		SchemaReducer:        rangevec.DefaultSchemaReducer,
		FastReduceMaxWindows: defaultFastReduceMaxWindows,
		Concurrency:          defaultNonLeafConcurrency,
		Logger:               logger,
	}
}

func (n *NonLeaf) PlanClass() string { return n.Class }

func (n *NonLeaf) Args() string {
	return fmt.Sprintf("dataset=%s, children=%d", n.DatasetName, len(n.ChildPlans))
}

func (n *NonLeaf) DoExecute(ctx context.Context, session *queryctx.Session) (ExecResult, error) {
	children := n.ChildPlans
	results := make([]ExecResult, len(children))
	errs := make([]error, len(children))

	dispatchOne := func(i int) {
		child := children[i]
		if n.Metrics != nil {
			n.Metrics.IncChildDispatched(n.Class, child.Dataset(), fmt.Sprintf("%d", i))
		}
		results[i], errs[i] = child.Dispatcher().Dispatch(ctx, child, session)
	}

	threshold := n.FastReduceMaxWindows
	if threshold <= 0 {
		threshold = defaultFastReduceMaxWindows
	}

	if len(children) < threshold {
		for i := range children {
			dispatchOne(i)
		}
	} else {
		concurrency := n.Concurrency
		if concurrency <= 0 {
			concurrency = defaultNonLeafConcurrency
		}
		sem := semaphore.NewWeighted(int64(concurrency))
		var wg sync.WaitGroup
		for i := range children {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				if err := sem.Acquire(ctx, 1); err != nil {
					errs[idx] = err
					return
				}
				defer sem.Release(1)
				dispatchOne(idx)
			}(i)
		}
		wg.Wait()
	}

	var (
		childErrs error
		succeeded []ExecResult
	)
	for i, err := range errs {
		if err != nil {
			childErrs = multierr.Append(childErrs, fmt.Errorf("child %d (%s): %w", i, children[i].PlanClass(), err))
			if n.Logger != nil {
				level.Warn(n.Logger).Log("msg", "child plan failed", "plan_class", n.Class, "child_index", i, "child_plan", children[i].PlanClass(), "err", err)
			}
			continue
		}
		succeeded = append(succeeded, results[i])
	}

	if len(succeeded) == 0 && childErrs != nil {
		return ExecResult{}, wrapStage(childErrs, "child-dispatch", n.Class)
	}
	if childErrs != nil {
		session.Stats.MarkPartial(fmt.Sprintf("%d of %d children failed: %v", len(children)-len(succeeded), len(children), childErrs))
	}

	compose := n.Compose
	if compose == nil {
		compose = defaultCompose
	}
	reducer := n.SchemaReducer
	if reducer == nil {
		reducer = rangevec.DefaultSchemaReducer
	}
	return compose(succeeded, reducer)
}
