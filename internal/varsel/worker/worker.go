// Package worker runs the varsel lifecycle jobs: archival, downstream
// publication, and reply-window expiry. Each worker polls its backlog on a
// ticker and handles items independently, so one failing varsel never blocks
// the rest of the batch.
package worker

import (
	"context"
	"log/slog"
	"time"

	varselmetrics "aktivitetskrav/internal/varsel/metrics"
	models "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/internal/varsel/store"
	"aktivitetskrav/pkg/domain"
	"aktivitetskrav/pkg/platform/circuit"
)

// Store is the varsel backlog the workers drain.
type Store interface {
	GetUnarchived(ctx context.Context) ([]store.PersonVarsel, error)
	GetUnpublished(ctx context.Context) ([]store.PersonVarsel, error)
	GetExpired(ctx context.Context, asOf time.Time) ([]store.PersonVarsel, error)
	MarkJournalfort(ctx context.Context, v *models.Varsel) error
	MarkPublished(ctx context.Context, v *models.Varsel) error
	MarkExpiredPublished(ctx context.Context, v *models.Varsel) error
}

// Journaler archives a rendered varsel document and returns the journalpost
// reference. Must be idempotent on the varsel ID.
type Journaler interface {
	Create(ctx context.Context, personident domain.PersonIdent, v *models.Varsel, pdf []byte) (string, error)
}

// Producer publishes varsel events downstream.
type Producer interface {
	VarselPublished(ctx context.Context, event models.Event) error
	VarselExpired(ctx context.Context, event models.Event) error
}

// Worker drives the three varsel jobs.
type Worker struct {
	store     Store
	journaler Journaler
	producer  Producer
	interval  time.Duration
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *varselmetrics.Metrics
	now       func() time.Time
}

// Option configures the Worker.
type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithMetrics(m *varselmetrics.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

func WithInterval(interval time.Duration) Option {
	return func(w *Worker) { w.interval = interval }
}

// WithClock pins the worker's notion of now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

func New(s Store, journaler Journaler, producer Producer, opts ...Option) *Worker {
	w := &Worker{
		store:     s,
		journaler: journaler,
		producer:  producer,
		interval:  time.Minute,
		breaker:   circuit.New("dokarkiv", circuit.WithFailureThreshold(3)),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunJournalforing archives unarchived varsler until ctx is cancelled.
func (w *Worker) RunJournalforing(ctx context.Context) error {
	return w.poll(ctx, w.JournalforBatch)
}

// RunPublishing delivers archived, unpublished varsler until ctx is cancelled.
func (w *Worker) RunPublishing(ctx context.Context) error {
	return w.poll(ctx, w.PublishBatch)
}

// RunExpiry announces passed reply windows until ctx is cancelled.
func (w *Worker) RunExpiry(ctx context.Context) error {
	return w.poll(ctx, w.PublishExpiredBatch)
}

func (w *Worker) poll(ctx context.Context, batch func(ctx context.Context) (int, error)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := batch(ctx); err != nil {
				w.logger.Error("varsel batch failed", "error", err)
			}
		}
	}
}

// JournalforBatch archives every unarchived varsel and reports how many
// succeeded. Archival must precede publication, so a varsel that fails here is
// retried on the next tick and stays invisible to the publish job.
//
// A circuit breaker guards the archival service: when it trips, the rest of
// the batch is deferred to the next tick instead of hammering a failing
// dependency. An open breaker still probes with one varsel per batch.
func (w *Worker) JournalforBatch(ctx context.Context) (int, error) {
	backlog, err := w.store.GetUnarchived(ctx)
	if err != nil {
		return 0, err
	}
	w.metrics.SetUnarchivedBacklog(len(backlog))
	archived := 0
	probed := false
	for i, pv := range backlog {
		if w.breaker.IsOpen() {
			if probed {
				w.logger.Warn("journalforing circuit open, deferring remaining varsler",
					"breaker", w.breaker.Name(), "deferred", len(backlog)-i)
				break
			}
			probed = true
		}
		if err := w.journalfor(ctx, pv); err != nil {
			w.metrics.IncWorkerError("journalforing")
			w.logger.Error("failed to journalfore varsel", "varsel_id", pv.Varsel.ID, "error", err)
			continue
		}
		archived++
	}
	return archived, nil
}

func (w *Worker) journalfor(ctx context.Context, pv store.PersonVarsel) error {
	journalpostID, err := w.journaler.Create(ctx, pv.PersonIdent, pv.Varsel, pv.PDF)
	if err != nil {
		if _, change := w.breaker.RecordFailure(); change.Opened {
			w.logger.Warn("journalforing circuit opened", "breaker", w.breaker.Name())
		}
		return err
	}
	w.breaker.RecordSuccess()
	if err := pv.Varsel.Journalfor(journalpostID); err != nil {
		return err
	}
	if err := w.store.MarkJournalfort(ctx, pv.Varsel); err != nil {
		return err
	}
	w.metrics.IncJournalfort()
	return nil
}

// PublishBatch delivers every archived, unpublished varsel downstream.
func (w *Worker) PublishBatch(ctx context.Context) (int, error) {
	backlog, err := w.store.GetUnpublished(ctx)
	if err != nil {
		return 0, err
	}
	published := 0
	for _, pv := range backlog {
		if err := w.publish(ctx, pv); err != nil {
			w.metrics.IncWorkerError("publishing")
			w.logger.Error("failed to publish varsel", "varsel_id", pv.Varsel.ID, "error", err)
			continue
		}
		published++
	}
	return published, nil
}

func (w *Worker) publish(ctx context.Context, pv store.PersonVarsel) error {
	if err := w.producer.VarselPublished(ctx, models.NewEvent(pv.PersonIdent.String(), pv.Varsel)); err != nil {
		return err
	}
	if err := pv.Varsel.Publish(w.now()); err != nil {
		return err
	}
	if err := w.store.MarkPublished(ctx, pv.Varsel); err != nil {
		return err
	}
	w.metrics.IncPublished()
	return nil
}

// PublishExpiredBatch announces every passed, unannounced reply window.
// The expired marker is set in the same pass, so each expiry is announced at
// most once.
func (w *Worker) PublishExpiredBatch(ctx context.Context) (int, error) {
	backlog, err := w.store.GetExpired(ctx, w.now())
	if err != nil {
		return 0, err
	}
	announced := 0
	for _, pv := range backlog {
		if err := w.publishExpired(ctx, pv); err != nil {
			w.metrics.IncWorkerError("expiry")
			w.logger.Error("failed to publish varsel expiry", "varsel_id", pv.Varsel.ID, "error", err)
			continue
		}
		announced++
	}
	return announced, nil
}

func (w *Worker) publishExpired(ctx context.Context, pv store.PersonVarsel) error {
	if err := w.producer.VarselExpired(ctx, models.NewEvent(pv.PersonIdent.String(), pv.Varsel)); err != nil {
		return err
	}
	if err := pv.Varsel.MarkExpiredPublished(w.now()); err != nil {
		return err
	}
	if err := w.store.MarkExpiredPublished(ctx, pv.Varsel); err != nil {
		return err
	}
	w.metrics.IncExpiredPublished()
	return nil
}
