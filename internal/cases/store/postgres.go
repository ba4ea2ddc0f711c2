package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aktivitetskrav/internal/cases/models"
	varselmodels "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/pkg/domain"
	"aktivitetskrav/pkg/platform/sentinel"
	txcontext "aktivitetskrav/pkg/platform/tx"
)

// PostgresStore persists cases and assessments. Writes join the transaction
// carried in context so the service commits case, assessment, and varsel
// together or not at all.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const caseColumns = `id, personident, status, stoppunkt_at, reference_tilfelle_start, previous_case_id, created_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, id domain.CaseID) (*models.Case, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM aktivitetskrav WHERE id = $1`, uuid.UUID(id))
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get case: %w", err)
	}
	if err := s.loadAssessments(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) GetByPerson(ctx context.Context, personident domain.PersonIdent) ([]*models.Case, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+caseColumns+` FROM aktivitetskrav WHERE personident = $1 ORDER BY created_at DESC`,
		personident.String())
	if err != nil {
		return nil, fmt.Errorf("query cases by person: %w", err)
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	for _, c := range cases {
		if err := s.loadAssessments(ctx, c); err != nil {
			return nil, err
		}
	}
	return cases, nil
}

func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	var previousCaseID *uuid.UUID
	if c.PreviousCaseID != nil {
		prev := uuid.UUID(*c.PreviousCaseID)
		previousCaseID = &prev
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO aktivitetskrav (id, personident, status, stoppunkt_at, reference_tilfelle_start, previous_case_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(c.ID),
		c.PersonIdent.String(),
		string(c.Status),
		c.StoppunktAt,
		c.ReferenceEpisodeStart,
		previousCaseID,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAssessment(ctx context.Context, assessment *models.Assessment) error {
	reasons, err := json.Marshal(assessment.Reasons)
	if err != nil {
		return fmt.Errorf("marshal assessment reasons: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO vurdering (id, aktivitetskrav_id, status, assessed_by, rationale, reasons, frist_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(assessment.ID),
		uuid.UUID(assessment.CaseID),
		string(assessment.Status),
		assessment.AssessedBy,
		assessment.Rationale,
		reasons,
		assessment.FristAt,
		assessment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, c *models.Case) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE aktivitetskrav SET status = $2, updated_at = $3 WHERE id = $1
	`, uuid.UUID(c.ID), string(c.Status), c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update case status: %w", err)
	}
	return expectOneRow(result, "update case status")
}

func (s *PostgresStore) UpdateStoppunkt(ctx context.Context, c *models.Case) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE aktivitetskrav SET stoppunkt_at = $2, reference_tilfelle_start = $3, updated_at = $4 WHERE id = $1
	`, uuid.UUID(c.ID), c.StoppunktAt, c.ReferenceEpisodeStart, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update case stoppunkt: %w", err)
	}
	return expectOneRow(result, "update case stoppunkt")
}

func (s *PostgresStore) ReassignPerson(ctx context.Context, oldIdents []domain.PersonIdent, newIdent domain.PersonIdent) (int, error) {
	idents := make([]string, len(oldIdents))
	for i, ident := range oldIdents {
		idents[i] = ident.String()
	}
	serialized, err := json.Marshal(idents)
	if err != nil {
		return 0, fmt.Errorf("marshal idents: %w", err)
	}
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE aktivitetskrav SET personident = $1, updated_at = $2
		WHERE personident IN (SELECT jsonb_array_elements_text($3::jsonb))
	`, newIdent.String(), time.Now(), serialized)
	if err != nil {
		return 0, fmt.Errorf("reassign person: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign person rows affected: %w", err)
	}
	return int(count), nil
}

func (s *PostgresStore) DeleteAssessment(ctx context.Context, c *models.Case, assessmentID domain.AssessmentID) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM vurdering WHERE id = $1 AND aktivitetskrav_id = $2`,
		uuid.UUID(assessmentID), uuid.UUID(c.ID))
	if err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	if err := expectOneRow(result, "delete assessment"); err != nil {
		return err
	}
	return s.UpdateStatus(ctx, c)
}

func (s *PostgresStore) loadAssessments(ctx context.Context, c *models.Case) error {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT v.id, v.status, v.assessed_by, v.rationale, v.reasons, v.frist_at, v.created_at,
		       va.id, va.type, va.document, va.svarfrist_at, va.journalpost_id, va.published_at, va.expired_published_at, va.created_at
		FROM vurdering v
		LEFT JOIN varsel va ON va.vurdering_id = v.id
		WHERE v.aktivitetskrav_id = $1
		ORDER BY v.created_at DESC
	`, uuid.UUID(c.ID))
	if err != nil {
		return fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		assessment, err := scanAssessment(rows, c.ID)
		if err != nil {
			return err
		}
		c.Assessments = append(c.Assessments, assessment)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate assessments: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c              models.Case
		caseID         uuid.UUID
		personident    string
		status         string
		referenceStart sql.NullTime
		previousCaseID *uuid.UUID
	)
	err := row.Scan(&caseID, &personident, &status, &c.StoppunktAt, &referenceStart, &previousCaseID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ID = domain.CaseID(caseID)
	c.PersonIdent = domain.PersonIdent(personident)
	c.Status = models.Status(status)
	if referenceStart.Valid {
		start := referenceStart.Time
		c.ReferenceEpisodeStart = &start
	}
	if previousCaseID != nil {
		prev := domain.CaseID(*previousCaseID)
		c.PreviousCaseID = &prev
	}
	return &c, nil
}

func scanAssessment(row rowScanner, caseID domain.CaseID) (*models.Assessment, error) {
	var (
		assessment   models.Assessment
		assessmentID uuid.UUID
		status       string
		reasonsRaw   []byte
		fristAt      sql.NullTime

		varselID           *uuid.UUID
		varselType         sql.NullString
		documentRaw        []byte
		svarfristAt        sql.NullTime
		journalpostID      sql.NullString
		publishedAt        sql.NullTime
		expiredPublishedAt sql.NullTime
		varselCreatedAt    sql.NullTime
	)
	err := row.Scan(
		&assessmentID, &status, &assessment.AssessedBy, &assessment.Rationale, &reasonsRaw, &fristAt, &assessment.CreatedAt,
		&varselID, &varselType, &documentRaw, &svarfristAt, &journalpostID, &publishedAt, &expiredPublishedAt, &varselCreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan assessment: %w", err)
	}
	assessment.ID = domain.AssessmentID(assessmentID)
	assessment.CaseID = caseID
	assessment.Status = models.Status(status)
	if len(reasonsRaw) > 0 {
		if err := json.Unmarshal(reasonsRaw, &assessment.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshal assessment reasons: %w", err)
		}
	}
	if fristAt.Valid {
		frist := fristAt.Time
		assessment.FristAt = &frist
	}
	if varselID != nil {
		v := &varselmodels.Varsel{
			ID:           domain.VarselID(*varselID),
			AssessmentID: assessment.ID,
			Type:         varselmodels.Type(varselType.String),
		}
		if len(documentRaw) > 0 {
			if err := json.Unmarshal(documentRaw, &v.Document); err != nil {
				return nil, fmt.Errorf("unmarshal varsel document: %w", err)
			}
		}
		if svarfristAt.Valid {
			frist := svarfristAt.Time
			v.SvarfristAt = &frist
		}
		if journalpostID.Valid {
			jp := journalpostID.String
			v.JournalpostID = &jp
		}
		if publishedAt.Valid {
			published := publishedAt.Time
			v.PublishedAt = &published
		}
		if expiredPublishedAt.Valid {
			expired := expiredPublishedAt.Time
			v.ExpiredPublishedAt = &expired
		}
		if varselCreatedAt.Valid {
			v.CreatedAt = varselCreatedAt.Time
		}
		assessment.Varsel = v
	}
	return &assessment, nil
}

func expectOneRow(result sql.Result, op string) error {
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if count == 0 {
		return sentinel.ErrNotFound
	}
	if count > 1 {
		return fmt.Errorf("%s: unexpected row count %d: %w", op, count, sentinel.ErrConflict)
	}
	return nil
}
