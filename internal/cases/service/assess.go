package service

import (
	"context"
	"time"

	"aktivitetskrav/internal/cases/models"
	varselmodels "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/pkg/domain"
	dErrors "aktivitetskrav/pkg/domain-errors"
)

// AssessCommand carries one caseworker decision. Document holds the structured
// notice content for outcomes that generate a varsel.
type AssessCommand struct {
	CaseID     domain.CaseID
	Status     models.Status
	AssessedBy string
	Rationale  string
	Reasons    []models.Reason
	FristAt    *time.Time
	Document   []string
}

// ForewarningCommand issues the FORHANDSVARSEL assessment with its notice of
// intended benefit stop. SvarfristAt is the worker's reply deadline.
type ForewarningCommand struct {
	CaseID      domain.CaseID
	AssessedBy  string
	Rationale   string
	Document    []string
	SvarfristAt time.Time
}

// Assess records a caseworker decision on an open case. The assessment, its
// varsel when the outcome requires one, and the case status change commit
// atomically; a document render failure rolls back the whole decision.
//
// Forewarnings have their own entry point because of the reply-deadline rules,
// so FORHANDSVARSEL is rejected here.
func (s *Service) Assess(ctx context.Context, cmd AssessCommand) (*models.Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Assess")
	defer span.End()
	defer s.observe("assess", s.now())

	if cmd.Status == models.StatusForhandsvarsel {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "forewarnings are issued through SendForewarning")
	}

	var (
		recorded *models.Assessment
		updated  *models.Case
	)
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.Get(ctx, cmd.CaseID)
		if err != nil {
			return translateStoreErr(err)
		}
		if c.Status.IsFinal() {
			return dErrors.New(dErrors.CodeConflict, "case "+string(c.Status)+" accepts no further assessments")
		}
		assessment, err := models.NewAssessment(c.ID, cmd.Status, cmd.AssessedBy, cmd.Rationale, cmd.Reasons, cmd.FristAt)
		if err != nil {
			return err
		}
		var pdf []byte
		if cmd.Status.RequiresVarsel() {
			pdf, err = s.buildVarsel(ctx, c, assessment, cmd.Document, nil)
			if err != nil {
				return err
			}
		}
		recorded, updated = assessment, c
		return s.persistDecision(ctx, c, assessment, pdf)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAssessment(string(recorded.Status))
	s.publishCaseChanged(ctx, updated)
	return recorded, nil
}

// SendForewarning issues the notice of intended benefit stop. At most one
// forewarning per case, never on a final case, and the reply deadline must fall
// inside the configured window counted from today.
func (s *Service) SendForewarning(ctx context.Context, cmd ForewarningCommand) (*models.Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "Service.SendForewarning")
	defer span.End()
	defer s.observe("send_forewarning", s.now())

	if err := s.validateSvarfrist(cmd.SvarfristAt); err != nil {
		return nil, err
	}

	var (
		recorded *models.Assessment
		updated  *models.Case
	)
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.Get(ctx, cmd.CaseID)
		if err != nil {
			return translateStoreErr(err)
		}
		if c.Status.IsFinal() {
			return dErrors.New(dErrors.CodeConflict, "case "+string(c.Status)+" accepts no further assessments")
		}
		if c.HasForhandsvarsel() {
			return dErrors.New(dErrors.CodeConflict, "case already has a forewarning")
		}
		svarfrist := cmd.SvarfristAt
		assessment, err := models.NewAssessment(c.ID, models.StatusForhandsvarsel, cmd.AssessedBy, cmd.Rationale, nil, &svarfrist)
		if err != nil {
			return err
		}
		pdf, err := s.buildVarsel(ctx, c, assessment, cmd.Document, &svarfrist)
		if err != nil {
			return err
		}
		recorded, updated = assessment, c
		return s.persistDecision(ctx, c, assessment, pdf)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAssessment(string(recorded.Status))
	s.publishCaseChanged(ctx, updated)
	return recorded, nil
}

func (s *Service) validateSvarfrist(svarfrist time.Time) error {
	now := s.now()
	// Day boundary in the clock's location, not the UTC epoch day.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	earliest := today.AddDate(0, 0, s.cfg.SvarfristMinDays)
	latest := today.AddDate(0, 0, s.cfg.SvarfristMaxDays)
	if svarfrist.Before(earliest) || svarfrist.After(latest) {
		return dErrors.New(dErrors.CodeValidation, "svarfrist must fall between "+
			earliest.Format("2006-01-02")+" and "+latest.Format("2006-01-02"))
	}
	return nil
}

// buildVarsel constructs the notice, renders its document, and attaches the
// varsel to the assessment. The rendered PDF travels alongside to the varsel
// store. Render errors surface as document-render failures and abort the
// enclosing transaction.
func (s *Service) buildVarsel(ctx context.Context, c *models.Case, assessment *models.Assessment, document []string, svarfrist *time.Time) ([]byte, error) {
	typ, ok := assessment.Status.VarselType()
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "outcome "+string(assessment.Status)+" has no varsel type")
	}
	v, err := varselmodels.New(typ, document, svarfrist)
	if err != nil {
		return nil, err
	}
	v.AssessmentID = assessment.ID
	pdf, err := s.renderer.Render(ctx, c.PersonIdent, v)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDocumentRender, "failed to render varsel document")
	}
	assessment.Varsel = v
	return pdf, nil
}

// persistDecision applies the assessment to the case and commits the
// assessment, its varsel when present, and the status change.
func (s *Service) persistDecision(ctx context.Context, c *models.Case, assessment *models.Assessment, pdf []byte) error {
	c.Apply(assessment)
	if err := s.cases.CreateAssessment(ctx, assessment); err != nil {
		return translateStoreErr(err)
	}
	if assessment.Varsel != nil {
		if err := s.varsler.Create(ctx, c.PersonIdent, assessment.Varsel, pdf); err != nil {
			return translateStoreErr(err)
		}
	}
	if err := s.cases.UpdateStatus(ctx, c); err != nil {
		return translateStoreErr(err)
	}
	return nil
}
