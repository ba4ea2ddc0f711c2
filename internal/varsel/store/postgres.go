package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	models "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/pkg/domain"
	"aktivitetskrav/pkg/platform/sentinel"
	txcontext "aktivitetskrav/pkg/platform/tx"
)

// PostgresStore persists varsler. Create joins the transaction in context so a
// varsel commits together with its assessment and case update.
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

func (s *PostgresStore) Create(ctx context.Context, personident domain.PersonIdent, v *models.Varsel, pdf []byte) error {
	document, err := json.Marshal(v.Document)
	if err != nil {
		return fmt.Errorf("marshal varsel document: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO varsel (id, vurdering_id, personident, type, document, pdf, svarfrist_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(v.ID),
		uuid.UUID(v.AssessmentID),
		personident.String(),
		string(v.Type),
		document,
		pdf,
		v.SvarfristAt,
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert varsel: %w", err)
	}
	return nil
}

const varselColumns = `id, vurdering_id, personident, type, document, svarfrist_at, journalpost_id, published_at, expired_published_at, created_at`

func (s *PostgresStore) GetByAssessment(ctx context.Context, assessmentID domain.AssessmentID) (*models.Varsel, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+varselColumns+` FROM varsel WHERE vurdering_id = $1`, uuid.UUID(assessmentID))
	entry, err := scanVarsel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get varsel by assessment: %w", err)
	}
	return entry.Varsel, nil
}

func (s *PostgresStore) GetUnarchived(ctx context.Context) ([]PersonVarsel, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+varselColumns+`, pdf FROM varsel WHERE journalpost_id IS NULL ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query unarchived varsler: %w", err)
	}
	defer rows.Close()
	return scanVarsler(rows, true)
}

func (s *PostgresStore) GetUnpublished(ctx context.Context) ([]PersonVarsel, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+varselColumns+` FROM varsel WHERE journalpost_id IS NOT NULL AND published_at IS NULL ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query unpublished varsler: %w", err)
	}
	defer rows.Close()
	return scanVarsler(rows, false)
}

func (s *PostgresStore) GetExpired(ctx context.Context, asOf time.Time) ([]PersonVarsel, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+varselColumns+` FROM varsel
		 WHERE svarfrist_at IS NOT NULL AND svarfrist_at < $1 AND expired_published_at IS NULL
		 ORDER BY created_at ASC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("query expired varsler: %w", err)
	}
	defer rows.Close()
	return scanVarsler(rows, false)
}

func (s *PostgresStore) MarkJournalfort(ctx context.Context, v *models.Varsel) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE varsel SET journalpost_id = $2 WHERE id = $1 AND journalpost_id IS NULL`,
		uuid.UUID(v.ID), v.JournalpostID)
	if err != nil {
		return fmt.Errorf("mark varsel journalfort: %w", err)
	}
	return expectOneRow(result, "mark varsel journalfort")
}

func (s *PostgresStore) MarkPublished(ctx context.Context, v *models.Varsel) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE varsel SET published_at = $2 WHERE id = $1 AND journalpost_id IS NOT NULL AND published_at IS NULL`,
		uuid.UUID(v.ID), v.PublishedAt)
	if err != nil {
		return fmt.Errorf("mark varsel published: %w", err)
	}
	return expectOneRow(result, "mark varsel published")
}

func (s *PostgresStore) MarkExpiredPublished(ctx context.Context, v *models.Varsel) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE varsel SET expired_published_at = $2 WHERE id = $1 AND expired_published_at IS NULL`,
		uuid.UUID(v.ID), v.ExpiredPublishedAt)
	if err != nil {
		return fmt.Errorf("mark varsel expired published: %w", err)
	}
	return expectOneRow(result, "mark varsel expired published")
}

func scanVarsler(rows *sql.Rows, withPDF bool) ([]PersonVarsel, error) {
	var result []PersonVarsel
	for rows.Next() {
		entry, err := scanVarselRow(rows, withPDF)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate varsler: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVarsel(row rowScanner) (PersonVarsel, error) {
	return scanVarselRow(row, false)
}

func scanVarselRow(row rowScanner, withPDF bool) (PersonVarsel, error) {
	var (
		v                  models.Varsel
		varselID           uuid.UUID
		assessmentID       uuid.UUID
		personident        string
		typ                string
		documentRaw        []byte
		svarfristAt        sql.NullTime
		journalpostID      sql.NullString
		publishedAt        sql.NullTime
		expiredPublishedAt sql.NullTime
		pdf                []byte
	)
	dest := []any{&varselID, &assessmentID, &personident, &typ, &documentRaw, &svarfristAt, &journalpostID, &publishedAt, &expiredPublishedAt, &v.CreatedAt}
	if withPDF {
		dest = append(dest, &pdf)
	}
	if err := row.Scan(dest...); err != nil {
		return PersonVarsel{}, err
	}
	v.ID = domain.VarselID(varselID)
	v.AssessmentID = domain.AssessmentID(assessmentID)
	v.Type = models.Type(typ)
	if len(documentRaw) > 0 {
		if err := json.Unmarshal(documentRaw, &v.Document); err != nil {
			return PersonVarsel{}, fmt.Errorf("unmarshal varsel document: %w", err)
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
	return PersonVarsel{
		PersonIdent: domain.PersonIdent(personident),
		Varsel:      &v,
		PDF:         pdf,
	}, nil
}

func expectOneRow(result sql.Result, op string) error {
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if count == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
