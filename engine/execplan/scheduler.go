package execplan

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// schedulerThreadName is the pool name GoroutineScheduler reports from
// ThreadName. Nothing in this package checks it: the engine does not
// verify that step 1 or step 2 runs on the query pool. ThreadName exists
// so a doExecute implementation can compare against it.
const schedulerThreadName = "rangevector-query-pool"

// Scheduler runs a doExecute-shaped task on the engine's query executor,
// distinct from I/O executors per the concurrency model.
type Scheduler interface {
	// Run executes fn, bounded by whatever concurrency policy the
	// scheduler enforces.
	Run(ctx context.Context, fn func() (ExecResult, error)) (ExecResult, error)
	// ThreadName names the pool this scheduler runs on. The engine does
	// not check it.
	ThreadName() string
}

// GoroutineScheduler is a bounded worker pool backed by a semaphore,
// grounded on the teacher's FederatedQuerier.QueryAllInstances
// bounded-goroutine dispatch (_examples/grafana-tempo/cmd/tempo-federated-querier/querier.go) and
// the Loki downstreamer's semaphore-channel pattern retrieved in the
// example pack: both cap in-flight concurrent work with a counting
// primitive rather than an unbounded goroutine-per-task fan-out.
type GoroutineScheduler struct {
	sem *semaphore.Weighted
}

// NewGoroutineScheduler returns a Scheduler that runs at most maxConcurrency
// tasks at once. maxConcurrency <= 0 is treated as 1.
func NewGoroutineScheduler(maxConcurrency int64) *GoroutineScheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &GoroutineScheduler{sem: semaphore.NewWeighted(maxConcurrency)}
}

func (s *GoroutineScheduler) ThreadName() string { return schedulerThreadName }

func (s *GoroutineScheduler) Run(ctx context.Context, fn func() (ExecResult, error)) (ExecResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return ExecResult{}, err
	}
	defer s.sem.Release(1)
	return fn()
}
