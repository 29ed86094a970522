package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/grafana/rangevector/engine/execplan"
	"github.com/grafana/rangevector/internal/config"
	"github.com/grafana/rangevector/internal/metrics"
	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/pkg/rangevec/aggregate"
	"github.com/grafana/rangevector/queryctx"
)

const appName = "rangevector-demo"

func main() {
	cfg := &config.Config{}
	cfg.RegisterFlagsAndApplyDefaults("", flag.CommandLine)
	op := flag.String("op", "sum", "Aggregation operator to demonstrate (sum, avg, min, max, count).")
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = level.NewFilter(logger, level.AllowInfo())

	if err := cfg.Validate(); err != nil {
		level.Error(logger).Log("msg", "invalid configuration", "err", err)
		os.Exit(1)
	}

	aggOp, err := operatorByName(*op)
	if err != nil {
		level.Error(logger).Log("msg", "unknown operator", "op", *op, "err", err)
		os.Exit(1)
	}
	rowAgg, err := aggregate.Make(aggOp, aggregate.Params{})
	if err != nil {
		level.Error(logger).Log("msg", "failed to construct aggregator", "err", err)
		os.Exit(1)
	}

	reg := prometheusRegistryOrNil()
	m := metrics.New(reg)

	engine := execplan.NewEngine(
		execplan.NewGoroutineScheduler(int64(8)),
		m,
		logger,
		func() rangevec.RecordWriter { return newLogRowWriter(logger) },
		cfg.FastReduceMaxWindows,
	)
	dispatcher := execplan.NewLocalDispatcher(engine)

	source := newInMemoryChunkSource()
	outputRange := rangevec.OutputRange{StartMs: 0, StepMs: 1000, EndMs: 3000}

	leafA := execplan.NewSelectRawSeriesPlan("demo", dispatcher, source, map[string]string{"shard": "a"}, outputRange.StartMs, outputRange.EndMs, timestampAndValueSchema())
	leafA.AddTransformer(execplan.NewAggregateTransformer(aggOp, rowAgg, groupByJob, false, false, 4))

	leafB := execplan.NewSelectRawSeriesPlan("demo", dispatcher, source, map[string]string{"shard": "b"}, outputRange.StartMs, outputRange.EndMs, timestampAndValueSchema())
	leafB.AddTransformer(execplan.NewAggregateTransformer(aggOp, rowAgg, groupByJob, false, false, 4))

	root := execplan.NewNonLeaf("UnionPlan", "demo", dispatcher, []execplan.ExecPlan{leafA, leafB}, logger)
	root.FastReduceMaxWindows = cfg.FastReduceMaxWindows
	root.AddTransformer(execplan.NewAggregateTransformer(aggOp, rowAgg, groupByJob, true, true, 4))

	fmt.Println(execplan.PrintTree(root))

	ctx := queryctx.New(queryctx.PlannerParams{
		QueryTimeoutMillis: cfg.AskTimeout.Milliseconds(),
		SampleLimit:        10000,
	}, time.Now().UnixMilli())
	session := queryctx.NewSession(ctx)

	resp := engine.Execute(context.Background(), root, session)
	if resp.IsError {
		level.Error(logger).Log("msg", "query failed", "kind", resp.Err.Kind, "err", resp.Err.Err)
		os.Exit(1)
	}

	level.Info(logger).Log(
		"msg", "query complete",
		"query_id", resp.QueryID,
		"vectors", len(resp.Result.RangeVectors),
		"samples", resp.Stats.NumResultSamples,
		"partial", resp.Result.ResultCouldBePartial,
	)
}

func operatorByName(name string) (aggregate.Operator, error) {
	switch name {
	case "sum":
		return aggregate.Sum, nil
	case "avg":
		return aggregate.Avg, nil
	case "min":
		return aggregate.Min, nil
	case "max":
		return aggregate.Max, nil
	case "count":
		return aggregate.Count, nil
	default:
		return 0, fmt.Errorf("unsupported operator %q", name)
	}
}

func groupByJob(rv rangevec.RangeVector) rangevec.RangeVectorKey {
	value, _ := rv.Key.Get([]byte("job"))
	return rangevec.NewRangeVectorKey([]rangevec.LabelPair{{Name: []byte("job"), Value: value}})
}

func timestampAndValueSchema() rangevec.ResultSchema {
	return rangevec.ResultSchema{
		Columns: []rangevec.ColumnInfo{
			{Name: "timestamp", Type: rangevec.ColumnTimestamp},
			{Name: "value", Type: rangevec.ColumnDouble},
		},
	}
}
