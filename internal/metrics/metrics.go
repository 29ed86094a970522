// Package metrics wires the engine's execution counters into a Prometheus
// registry, following the teacher's constructor-takes-a-Registerer
// convention for every stateful module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the histograms and counters the exec-plan tree emits to,
// keyed by plan class name and dataset/shard tags per the external
// interfaces' "fire-and-forget metrics sink" contract.
type Metrics struct {
	planExecutionDuration *prometheus.HistogramVec
	planResultSamples     *prometheus.HistogramVec
	planErrorsTotal       *prometheus.CounterVec
	childDispatchedTotal  *prometheus.CounterVec
	partialResultsTotal   *prometheus.CounterVec
}

// New registers the engine's collectors against reg and returns the bundle.
// Passing a nil reg is valid and yields a Metrics whose collectors are never
// registered, handy in tests that don't care about scraping.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		planExecutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rangevector",
			Name:      "plan_execution_duration_seconds",
			Help:      "Time spent executing one ExecPlan node's doExecute plus transformer chain.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"plan_class", "dataset"}),
		planResultSamples: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rangevector",
			Name:      "plan_result_samples",
			Help:      "Number of samples materialized by a plan node's result.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"plan_class", "dataset"}),
		planErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rangevector",
			Name:      "plan_errors_total",
			Help:      "Count of QueryError results produced by a plan node, by error kind.",
		}, []string{"plan_class", "kind"}),
		childDispatchedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rangevector",
			Name:      "child_dispatched_total",
			Help:      "Count of child plan dispatches issued by a NonLeaf node.",
		}, []string{"plan_class", "dataset", "shard"}),
		partialResultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rangevector",
			Name:      "partial_results_total",
			Help:      "Count of query results flagged resultCouldBePartial.",
		}, []string{"plan_class", "reason"}),
	}
}

// ObservePlanExecution records how long a plan node's execute() took.
func (m *Metrics) ObservePlanExecution(planClass, dataset string, seconds float64) {
	m.planExecutionDuration.WithLabelValues(planClass, dataset).Observe(seconds)
}

// ObserveResultSamples records the number of samples a plan node's result
// carried after materialization.
func (m *Metrics) ObserveResultSamples(planClass, dataset string, samples int) {
	m.planResultSamples.WithLabelValues(planClass, dataset).Observe(float64(samples))
}

// IncPlanError increments the error counter for planClass/kind (e.g.
// "timeout", "bad-query", "schema-mismatch", "child-failure").
func (m *Metrics) IncPlanError(planClass, kind string) {
	m.planErrorsTotal.WithLabelValues(planClass, kind).Inc()
}

// IncChildDispatched increments the child-dispatch counter.
func (m *Metrics) IncChildDispatched(planClass, dataset, shard string) {
	m.childDispatchedTotal.WithLabelValues(planClass, dataset, shard).Inc()
}

// IncPartialResult increments the partial-result counter for reason.
func (m *Metrics) IncPartialResult(planClass, reason string) {
	m.partialResultsTotal.WithLabelValues(planClass, reason).Inc()
}
