// Package service orchestrates the case lifecycle: it composes the state
// machine and assessment model with the repositories, document renderer, and
// outbound event producer. Every mutating operation runs in one transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	casemetrics "aktivitetskrav/internal/cases/metrics"
	"aktivitetskrav/internal/cases/models"
	"aktivitetskrav/pkg/domain"
	dErrors "aktivitetskrav/pkg/domain-errors"
	"aktivitetskrav/pkg/platform/sentinel"
)

// Service is the externally callable case orchestrator.
type Service struct {
	cases    CaseStore
	varsler  VarselStore
	renderer DocumentRenderer
	producer EventProducer
	txRunner TxRunner

	cfg     Config
	logger  *slog.Logger
	metrics *casemetrics.Metrics
	tracer  trace.Tracer
	now     Clock
}

func New(cases CaseStore, varsler VarselStore, renderer DocumentRenderer, producer EventProducer, txRunner TxRunner, opts ...Option) *Service {
	s := &Service{
		cases:    cases,
		varsler:  varsler,
		renderer: renderer,
		producer: producer,
		txRunner: txRunner,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("aktivitetskrav/internal/cases/service"),
		now:      defaultClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFromEpisode builds the case the reconciliation engine derives from an
// episode that crossed the stoppunkt threshold.
func (s *Service) CreateFromEpisode(ctx context.Context, episode models.Oppfolgingstilfelle) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "Service.CreateFromEpisode")
	defer span.End()
	defer s.observe("create_from_episode", s.now())

	c := models.NewFromEpisode(episode)
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		return s.cases.Create(ctx, c)
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}
	s.metrics.IncCaseCreated(string(c.Status))
	s.publishCaseChanged(ctx, c)
	return c, nil
}

// CreateManual re-opens a case for a person, chained to a previous final case.
func (s *Service) CreateManual(ctx context.Context, personident domain.PersonIdent, previousCaseID *domain.CaseID) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "Service.CreateManual")
	defer span.End()
	defer s.observe("create_manual", s.now())

	if personident.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "personident is required")
	}

	var created *models.Case
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		var previous *models.Case
		if previousCaseID != nil {
			var err error
			previous, err = s.cases.Get(ctx, *previousCaseID)
			if err != nil {
				return translateStoreErr(err)
			}
			if !previous.Status.IsFinal() {
				return dErrors.New(dErrors.CodeConflict, "previous case is not final")
			}
		}
		existing, err := s.cases.GetByPerson(ctx, personident)
		if err != nil {
			return translateStoreErr(err)
		}
		for _, c := range existing {
			if !c.Status.IsFinal() {
				return dErrors.New(dErrors.CodeConflict, "person already has an open case")
			}
		}
		created = models.NewManual(personident, previous)
		return translateStoreErr(s.cases.Create(ctx, created))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncCaseCreated(string(created.Status))
	s.publishCaseChanged(ctx, created)
	return created, nil
}

// AutoFulfil applies the internal AUTOMATISK_OPPFYLT transition without an
// assessment row. Used by the reconciliation engine for superseded cases.
func (s *Service) AutoFulfil(ctx context.Context, c *models.Case) error {
	ctx, span := s.tracer.Start(ctx, "Service.AutoFulfil")
	defer span.End()
	defer s.observe("auto_fulfil", s.now())

	if c.Status.IsFinal() {
		return dErrors.New(dErrors.CodeConflict, "case is already final")
	}
	c.AutoFulfil()
	if err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		return s.cases.UpdateStatus(ctx, c)
	}); err != nil {
		return translateStoreErr(err)
	}
	s.publishCaseChanged(ctx, c)
	return nil
}

// Close is the administrative override, legal from any status.
func (s *Service) Close(ctx context.Context, caseID domain.CaseID) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Close")
	defer span.End()
	defer s.observe("close", s.now())

	var closed *models.Case
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.Get(ctx, caseID)
		if err != nil {
			return translateStoreErr(err)
		}
		c.Close()
		closed = c
		return translateStoreErr(s.cases.UpdateStatus(ctx, c))
	})
	if err != nil {
		return nil, err
	}
	s.publishCaseChanged(ctx, closed)
	return closed, nil
}

// UpdateStoppunkt recomputes the case deadline from the episode and persists it
// when changed. A moved deadline is not a status change, so no event is emitted.
func (s *Service) UpdateStoppunkt(ctx context.Context, c *models.Case, episode models.Oppfolgingstilfelle) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "Service.UpdateStoppunkt")
	defer span.End()
	defer s.observe("update_stoppunkt", s.now())

	if !c.UpdateStoppunkt(episode.TilfelleStart) {
		return false, nil
	}
	if err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		return s.cases.UpdateStoppunkt(ctx, c)
	}); err != nil {
		return false, translateStoreErr(err)
	}
	return true, nil
}

// MergeIdentity repoints every case owned by the old idents to the new ident.
// Pure data migration: no status change, no event.
func (s *Service) MergeIdentity(ctx context.Context, oldIdents []domain.PersonIdent, newIdent domain.PersonIdent) (int, error) {
	ctx, span := s.tracer.Start(ctx, "Service.MergeIdentity")
	defer span.End()
	defer s.observe("merge_identity", s.now())

	if newIdent.IsNil() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "new personident is required")
	}
	if len(oldIdents) == 0 {
		return 0, nil
	}
	var count int
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.cases.ReassignPerson(ctx, oldIdents, newIdent)
		return translateStoreErr(err)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("merged person identity", "count", count)
	return count, nil
}

// DeleteAssessment is the narrow administrative data-correction path: it
// removes one assessment and recomputes the case status from the remaining
// history, most recent assessment first.
func (s *Service) DeleteAssessment(ctx context.Context, caseID domain.CaseID, assessmentID domain.AssessmentID) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "Service.DeleteAssessment")
	defer span.End()
	defer s.observe("delete_assessment", s.now())

	var updated *models.Case
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.Get(ctx, caseID)
		if err != nil {
			return translateStoreErr(err)
		}
		if !c.RemoveAssessment(assessmentID) {
			return dErrors.New(dErrors.CodeNotFound, "assessment not found on case")
		}
		updated = c
		return translateStoreErr(s.cases.DeleteAssessment(ctx, c, assessmentID))
	})
	if err != nil {
		return nil, err
	}
	s.publishCaseChanged(ctx, updated)
	return updated, nil
}

// Get returns one case with its assessment history.
func (s *Service) Get(ctx context.Context, caseID domain.CaseID) (*models.Case, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return c, nil
}

// GetByPerson returns the person's cases, newest first.
func (s *Service) GetByPerson(ctx context.Context, personident domain.PersonIdent) ([]*models.Case, error) {
	cases, err := s.cases.GetByPerson(ctx, personident)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return cases, nil
}

// publishCaseChanged emits the outbound event after a committed status change.
// Delivery is the transport's concern; a publish failure is logged, not
// propagated, because the state change is already durable.
func (s *Service) publishCaseChanged(ctx context.Context, c *models.Case) {
	event := models.NewCaseChangedEvent(c)
	if err := s.producer.CaseChanged(ctx, event); err != nil {
		s.logger.Error("failed to publish case-changed event",
			"case_id", c.ID,
			"status", c.Status,
			"error", err,
		)
		return
	}
	s.metrics.IncEventPublished(string(c.Status))
}

func (s *Service) observe(operation string, start time.Time) {
	s.metrics.ObserveOperation(operation, time.Since(start).Seconds())
}

// translateStoreErr maps store sentinels onto domain error codes; anything else
// passes through (wrapped persistence failures abort the transaction).
func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "case not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting case state")
	default:
		return err
	}
}
