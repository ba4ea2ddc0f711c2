package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the varsel lifecycle workers.
type Metrics struct {
	// Varsler archived in the journal
	Journalfort prometheus.Counter

	// Varsler delivered downstream
	Published prometheus.Counter

	// Expired reply windows announced downstream
	ExpiredPublished prometheus.Counter

	// Worker iterations that failed, by worker
	WorkerErrors *prometheus.CounterVec

	// Varsler currently awaiting archival
	UnarchivedBacklog prometheus.Gauge
}

// New creates a new Metrics instance with all varsel metrics registered.
func New() *Metrics {
	return &Metrics{
		Journalfort: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aktivitetskrav_varsel_journalfort_total",
			Help: "Total varsler archived in the journal",
		}),

		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aktivitetskrav_varsel_published_total",
			Help: "Total varsler delivered downstream",
		}),

		ExpiredPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aktivitetskrav_varsel_expired_published_total",
			Help: "Total expired reply windows announced downstream",
		}),

		WorkerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aktivitetskrav_varsel_worker_errors_total",
			Help: "Total failed varsel worker item handlings by worker",
		}, []string{"worker"}),

		UnarchivedBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aktivitetskrav_varsel_unarchived_backlog",
			Help: "Varsler currently awaiting archival",
		}),
	}
}

// IncJournalfort records an archived varsel.
func (m *Metrics) IncJournalfort() {
	if m != nil {
		m.Journalfort.Inc()
	}
}

// IncPublished records a delivered varsel.
func (m *Metrics) IncPublished() {
	if m != nil {
		m.Published.Inc()
	}
}

// IncExpiredPublished records an announced reply-window expiry.
func (m *Metrics) IncExpiredPublished() {
	if m != nil {
		m.ExpiredPublished.Inc()
	}
}

// IncWorkerError records a failed worker item handling.
func (m *Metrics) IncWorkerError(worker string) {
	if m != nil {
		m.WorkerErrors.WithLabelValues(worker).Inc()
	}
}

// SetUnarchivedBacklog records the current archival backlog size.
func (m *Metrics) SetUnarchivedBacklog(n int) {
	if m != nil {
		m.UnarchivedBacklog.Set(float64(n))
	}
}
