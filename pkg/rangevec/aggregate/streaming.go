package aggregate

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/grafana/rangevector/pkg/rangevec"
)

// Grouping derives the output group key for one input range vector.
type Grouping func(rv rangevec.RangeVector) rangevec.RangeVectorKey

// RangeVectorAggregator drives the two-phase streaming map/reduce described
// in the component design: a bounded-parallel map phase over input range
// vectors, reducing into per-(group, timestamp) accumulators, followed by a
// present phase that projects the reduced intermediates into final output.
type RangeVectorAggregator struct {
	agg            RowAggregator
	maxConcurrency int64
}

// NewRangeVectorAggregator returns an aggregator driving agg, running at
// most maxConcurrency input range vectors' map phases concurrently.
// maxConcurrency <= 0 is treated as 1 (sequential).
func NewRangeVectorAggregator(agg RowAggregator, maxConcurrency int64) *RangeVectorAggregator {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &RangeVectorAggregator{agg: agg, maxConcurrency: maxConcurrency}
}

// MapReduce consumes src, grouping each input range vector via grouping and
// folding its rows into per-(group, timestamp) accumulators. When
// skipMapPhase is true, src rows are already intermediates (the reduce-phase
// rows of an upstream MapReduce) and are fed to Accumulator.Reduce directly,
// skipping RowAggregator.Map. It returns one range vector per distinct
// group, rows in ascending timestamp order, ready for Present.
//
// The map phase runs on a bounded parallel-unordered task executor
// (errgroup + semaphore); reduction into the shared accumulator table is
// single-threaded behind one mutex, matching the "implementation may choose
// per-group locks or single-threaded reduction feeding from a concurrent
// queue" allowance — row iteration itself stays off the lock, so the
// critical section is just one map insert plus one Accumulator.Reduce call.
func (a *RangeVectorAggregator) MapReduce(ctx context.Context, skipMapPhase bool, src []rangevec.RangeVector, grouping Grouping) ([]rangevec.RangeVector, error) {
	var mu sync.Mutex
	accumulators := map[string]map[int64]Accumulator{}
	groupKeys := map[string]rangevec.RangeVectorKey{}

	sem := semaphore.NewWeighted(a.maxConcurrency)
	g, gctx := errgroup.WithContext(ctx)

	for _, rv := range src {
		rv := rv
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			groupKey := grouping(rv)
			mapKey := groupKey.MapKey()
			mapRow := a.agg.NewRowToMapInto()

			it := rv.Rows()
			for it.Next() {
				row := it.At()
				var interRow rangevec.Row
				if skipMapPhase {
					interRow = row
				} else {
					// Map projects using the input vector's own key (e.g.
					// TopK/BottomK's candidate label), which is distinct
					// from the group key rows get bucketed into below.
					interRow = a.agg.Map(rv.Key, row, mapRow)
				}
				ts := interRow.GetLong(0)

				mu.Lock()
				tsMap, ok := accumulators[mapKey]
				if !ok {
					tsMap = map[int64]Accumulator{}
					accumulators[mapKey] = tsMap
					groupKeys[mapKey] = groupKey
				}
				acc, ok := tsMap[ts]
				if !ok {
					acc = a.agg.NewAccumulator()
					tsMap[ts] = acc
				}
				acc.Reduce(interRow)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mapKeysSorted := make([]string, 0, len(accumulators))
	for k := range accumulators {
		mapKeysSorted = append(mapKeysSorted, k)
	}
	sort.Strings(mapKeysSorted)

	out := make([]rangevec.RangeVector, 0, len(accumulators))
	for _, mapKey := range mapKeysSorted {
		tsMap := accumulators[mapKey]
		timestamps := make([]int64, 0, len(tsMap))
		for t := range tsMap {
			timestamps = append(timestamps, t)
		}
		sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

		rows := make([]rangevec.Row, len(timestamps))
		for i, t := range timestamps {
			rows[i] = tsMap[t].Row(t)
		}
		out = append(out, rangevec.NewRangeVector(groupKeys[mapKey], rows, nil))
	}
	return out, nil
}

// Present translates the reduced per-group intermediate range vectors
// produced by MapReduce into final output range vectors via the underlying
// RowAggregator's Present.
func (a *RangeVectorAggregator) Present(src []rangevec.RangeVector, limit int, rangeParams rangevec.OutputRange) ([]rangevec.RangeVector, error) {
	return a.agg.Present(src, limit, rangeParams)
}
