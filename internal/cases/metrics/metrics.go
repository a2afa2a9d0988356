package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the case engine.
// Tracks outcomes per operation, stale-stage losers and compliance signals.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	StaleStageTotal   *prometheus.CounterVec
	PolicyBlocks      prometheus.Counter
	SanctionedFlags   prometheus.Counter
}

// New creates a new Metrics instance with all case metrics registered.
func New() *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_case_operations_total",
			Help: "Case engine calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caseflow_case_operation_duration_seconds",
			Help:    "Duration of case engine calls, including the transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
		StaleStageTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_case_stale_stage_total",
			Help: "Compare-and-set writes that lost to a concurrent request",
		}, []string{"operation"}),
		PolicyBlocks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_case_policy_blocks_total",
			Help: "Requests blocked because they named a prohibited country",
		}),
		SanctionedFlags: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_case_sanctioned_flags_total",
			Help: "Conversions flagged for a sanctioned country",
		}),
	}
}

// Observe records the outcome and duration of one engine call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) Observe(operation, outcome string, start time.Time) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementStaleStage(operation string) {
	m.StaleStageTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementPolicyBlock() {
	m.PolicyBlocks.Inc()
}

func (m *Metrics) IncrementSanctioned() {
	m.SanctionedFlags.Inc()
}
