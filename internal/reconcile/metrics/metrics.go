package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the episode reconciliation engine.
type Metrics struct {
	// Snapshots fully processed
	SnapshotsProcessed prometheus.Counter

	// Snapshots that failed and were skipped after logging
	SnapshotsFailed prometheus.Counter

	// Snapshots filtered out before any mutation, by reason
	SnapshotsSkipped *prometheus.CounterVec

	// Snapshots short-circuited by the reference dedup cache
	SnapshotsDeduplicated prometheus.Counter

	// Cases created by the engine
	CasesCreated prometheus.Counter

	// Superseded cases automatically fulfilled
	CasesAutoFulfilled prometheus.Counter

	// Stoppunkt updates applied to matched cases
	StoppunktMoved prometheus.Counter
}

// New creates a new Metrics instance with all reconciliation metrics registered.
func New() *Metrics {
	return &Metrics{
		SnapshotsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aktivitetskrav_reconcile_snapshots_processed_total",
			Help: "Total episode snapshots fully processed",
		}),

		SnapshotsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aktivitetskrav_reconcile_snapshots_failed_total",
			Help: "Total episode snapshots that failed processing",
		}),

		SnapshotsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aktivitetskrav_reconcile_snapshots_skipped_total",
			Help: "Total episode snapshots filtered out, by reason",
		}, []string{"reason"}),

		SnapshotsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aktivitetskrav_reconcile_snapshots_deduplicated_total",
			Help: "Total episode snapshots short-circuited by the dedup cache",
		}),

		CasesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aktivitetskrav_reconcile_cases_created_total",
			Help: "Total cases created by the reconciliation engine",
		}),

		CasesAutoFulfilled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aktivitetskrav_reconcile_cases_auto_fulfilled_total",
			Help: "Total superseded cases automatically fulfilled",
		}),

		StoppunktMoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aktivitetskrav_reconcile_stoppunkt_moved_total",
			Help: "Total stoppunkt updates applied to matched cases",
		}),
	}
}

// IncProcessed records a fully processed snapshot.
func (m *Metrics) IncProcessed() {
	if m != nil {
		m.SnapshotsProcessed.Inc()
	}
}

// IncFailed records a failed snapshot.
func (m *Metrics) IncFailed() {
	if m != nil {
		m.SnapshotsFailed.Inc()
	}
}

// IncSkipped records a filtered snapshot by reason.
func (m *Metrics) IncSkipped(reason string) {
	if m != nil {
		m.SnapshotsSkipped.WithLabelValues(reason).Inc()
	}
}

// IncDeduplicated records a dedup-cache hit.
func (m *Metrics) IncDeduplicated() {
	if m != nil {
		m.SnapshotsDeduplicated.Inc()
	}
}

// IncCreated records an engine-created case.
func (m *Metrics) IncCreated() {
	if m != nil {
		m.CasesCreated.Inc()
	}
}

// IncAutoFulfilled records an automatically fulfilled superseded case.
func (m *Metrics) IncAutoFulfilled() {
	if m != nil {
		m.CasesAutoFulfilled.Inc()
	}
}

// IncStoppunktMoved records an applied stoppunkt update.
func (m *Metrics) IncStoppunktMoved() {
	if m != nil {
		m.StoppunktMoved.Inc()
	}
}
