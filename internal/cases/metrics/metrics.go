package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the case lifecycle module.
type Metrics struct {
	// Cases created by initial status
	CasesCreated *prometheus.CounterVec

	// Assessments recorded by outcome
	AssessmentsRecorded *prometheus.CounterVec

	// Outbound case-changed events by status
	EventsPublished *prometheus.CounterVec

	// Duration of mutating service operations
	OperationLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all case module metrics registered.
func New() *Metrics {
	return &Metrics{
		CasesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aktivitetskrav_cases_created_total",
			Help: "Total cases created by initial status",
		}, []string{"status"}),

		AssessmentsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aktivitetskrav_assessments_total",
			Help: "Total assessments recorded by outcome",
		}, []string{"outcome"}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aktivitetskrav_case_changed_events_total",
			Help: "Total outbound case-changed events by status",
		}, []string{"status"}),

		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aktivitetskrav_operation_duration_seconds",
			Help:    "Duration of mutating case service operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// IncCaseCreated records a created case.
func (m *Metrics) IncCaseCreated(status string) {
	if m != nil {
		m.CasesCreated.WithLabelValues(status).Inc()
	}
}

// IncAssessment records an assessment outcome.
func (m *Metrics) IncAssessment(outcome string) {
	if m != nil {
		m.AssessmentsRecorded.WithLabelValues(outcome).Inc()
	}
}

// IncEventPublished records an outbound case-changed event.
func (m *Metrics) IncEventPublished(status string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(status).Inc()
	}
}

// ObserveOperation records the duration of a service operation in seconds.
func (m *Metrics) ObserveOperation(operation string, seconds float64) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(seconds)
	}
}
