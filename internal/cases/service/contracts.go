package service

import (
	"context"
	"time"

	"aktivitetskrav/internal/cases/models"
	varselmodels "aktivitetskrav/internal/varsel/models"
	varselstore "aktivitetskrav/internal/varsel/store"
	"aktivitetskrav/pkg/domain"
)

// CaseStore is the case repository contract the service depends on.
// Mutations observe the transaction carried in context.
type CaseStore interface {
	Get(ctx context.Context, id domain.CaseID) (*models.Case, error)
	GetByPerson(ctx context.Context, personident domain.PersonIdent) ([]*models.Case, error)
	Create(ctx context.Context, c *models.Case) error
	CreateAssessment(ctx context.Context, assessment *models.Assessment) error
	UpdateStatus(ctx context.Context, c *models.Case) error
	UpdateStoppunkt(ctx context.Context, c *models.Case) error
	ReassignPerson(ctx context.Context, oldIdents []domain.PersonIdent, newIdent domain.PersonIdent) (int, error)
	DeleteAssessment(ctx context.Context, c *models.Case, assessmentID domain.AssessmentID) error
}

// VarselStore persists notices with their rendered documents.
type VarselStore interface {
	Create(ctx context.Context, personident domain.PersonIdent, v *varselmodels.Varsel, pdf []byte) error
	GetByAssessment(ctx context.Context, assessmentID domain.AssessmentID) (*varselmodels.Varsel, error)
	GetUnarchived(ctx context.Context) ([]varselstore.PersonVarsel, error)
}

// DocumentRenderer renders a varsel's structured content into the archived
// document. Failure is a checked error, never a silent empty document.
type DocumentRenderer interface {
	Render(ctx context.Context, personident domain.PersonIdent, v *varselmodels.Varsel) ([]byte, error)
}

// EventProducer publishes the case-changed event to downstream consumers.
// Fire-and-forget from the service's perspective; delivery guarantees are the
// transport layer's concern.
type EventProducer interface {
	CaseChanged(ctx context.Context, event models.CaseChangedEvent) error
}

// TxRunner provides the transactional boundary for service mutations.
// The SQL implementation opens a database transaction and places it in the
// context passed to fn; the in-memory implementation takes a coarse lock.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock lets tests pin time-dependent rules like the svarfrist window.
type Clock func() time.Time
