package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the auth flows.
type Metrics struct {
	FlowsStarted          *prometheus.CounterVec
	FlowDuration          *prometheus.HistogramVec
	StateValidations      *prometheus.CounterVec
	AuthFailures          *prometheus.CounterVec
	DeepLinks             *prometheus.CounterVec
	ResetTransitions      *prometheus.CounterVec
	ContextReads          *prometheus.CounterVec
	ContextSweepDeleted   prometheus.Counter
	ContextSweepDurations prometheus.Histogram
}

// New registers collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors with reg. Tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FlowsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_auth_flows_started_total",
			Help: "Auth flows started, labeled by flow and provider",
		}, []string{"flow", "provider"}),
		FlowDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podium_auth_operation_duration_ms",
			Help:    "Duration of auth operations in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"operation"}),
		StateValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_auth_state_validations_total",
			Help: "OAuth state validations, labeled by result",
		}, []string{"result"}),
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_auth_failures_total",
			Help: "Auth failures, labeled by error kind",
		}, []string{"kind"}),
		DeepLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_deep_links_total",
			Help: "Classified deep links, labeled by source, action and whether a redirect was issued",
		}, []string{"source", "action", "redirected"}),
		ResetTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_password_reset_transitions_total",
			Help: "Password reset state changes, labeled by target state",
		}, []string{"state"}),
		ContextReads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podium_auth_context_reads_total",
			Help: "Auth context store reads, labeled by key and result",
		}, []string{"key", "result"}),
		ContextSweepDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "podium_auth_context_swept_total",
			Help: "Expired auth context entries removed by the sweeper",
		}),
		ContextSweepDurations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "podium_auth_context_sweep_duration_ms",
			Help:    "Duration of auth context sweeps in milliseconds",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
		}),
	}
}

func (m *Metrics) IncrementFlowStarted(flow, provider string) {
	m.FlowsStarted.WithLabelValues(flow, provider).Inc()
}

func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.FlowDuration.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
}

func (m *Metrics) IncrementStateValidation(result string) {
	m.StateValidations.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementAuthFailure(kind string) {
	m.AuthFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementResetTransition(state string) {
	m.ResetTransitions.WithLabelValues(state).Inc()
}

// ObserveDeepLink satisfies the deep link middleware observer.
func (m *Metrics) ObserveDeepLink(source, action string, redirected bool) {
	if action == "" {
		action = "none"
	}
	r := "false"
	if redirected {
		r = "true"
	}
	m.DeepLinks.WithLabelValues(source, action, r).Inc()
}

// ObserveContextRead satisfies the context store observer.
func (m *Metrics) ObserveContextRead(key, result string) {
	m.ContextReads.WithLabelValues(key, result).Inc()
}

// ObserveContextSweep satisfies the context store observer.
func (m *Metrics) ObserveContextSweep(deleted int) {
	m.ContextSweepDeleted.Add(float64(deleted))
}

func (m *Metrics) ObserveSweepDuration(d time.Duration) {
	m.ContextSweepDurations.Observe(float64(d.Milliseconds()))
}
