package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObservePlanExecution("SumPlan", "metrics", 0.5)
	m.ObserveResultSamples("SumPlan", "metrics", 120)
	m.IncPlanError("SumPlan", "timeout")
	m.IncChildDispatched("SumPlan", "metrics", "shard-0")
	m.IncPartialResult("SumPlan", "child-timeout")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["rangevector_plan_execution_duration_seconds"])
	require.True(t, names["rangevector_plan_result_samples"])
	require.True(t, names["rangevector_plan_errors_total"])
	require.True(t, names["rangevector_child_dispatched_total"])
	require.True(t, names["rangevector_partial_results_total"])
}

func TestNewWithNilRegistererDoesNotPanic(t *testing.T) {
	m := New(nil)
	require.NotPanics(t, func() {
		m.IncPlanError("x", "y")
	})
}
