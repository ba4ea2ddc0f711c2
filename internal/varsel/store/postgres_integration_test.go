//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	casemodels "aktivitetskrav/internal/cases/models"
	casestore "aktivitetskrav/internal/cases/store"
	"aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/pkg/domain"
	"aktivitetskrav/pkg/platform/sentinel"
	"aktivitetskrav/pkg/testutil/containers"
)

var testPerson = domain.PersonIdent("12345678910")

// seedAssessment inserts the case and vurdering rows a varsel references.
func seedAssessment(t *testing.T, ctx context.Context, cases *casestore.PostgresStore) *casemodels.Assessment {
	t.Helper()

	c := casemodels.NewFromEpisode(casemodels.Oppfolgingstilfelle{
		PersonIdent:   testPerson,
		TilfelleStart: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		TilfelleEnd:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, cases.Create(ctx, c))

	frist := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	assessment, err := casemodels.NewAssessment(c.ID, casemodels.StatusForhandsvarsel, "Z999999",
		"Ikke i aktivitet og ingen dokumentert unntaksgrunn.", nil, &frist)
	require.NoError(t, err)
	require.NoError(t, cases.CreateAssessment(ctx, assessment))
	return assessment
}

func newTestVarsel(t *testing.T, assessmentID domain.AssessmentID) *models.Varsel {
	t.Helper()
	svarfrist := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	v, err := models.New(models.TypeForhandsvarselStansAvSykepenger,
		[]string{"Du har ikke vært i aktivitet.", "Frist for tilbakemelding."}, &svarfrist)
	require.NoError(t, err)
	v.AssessmentID = assessmentID
	return v
}

func TestPostgresVarselStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	cases := casestore.NewPostgres(pc.DB)
	store := NewPostgres(pc.DB)
	ctx := context.Background()

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, pc.TruncateAll(ctx))
	}

	t.Run("create and get by assessment", func(t *testing.T) {
		reset(t)
		assessment := seedAssessment(t, ctx, cases)
		v := newTestVarsel(t, assessment.ID)
		require.NoError(t, store.Create(ctx, testPerson, v, []byte("%PDF-1.7")))

		stored, err := store.GetByAssessment(ctx, assessment.ID)
		require.NoError(t, err)
		assert.Equal(t, v.ID, stored.ID)
		assert.Equal(t, models.TypeForhandsvarselStansAvSykepenger, stored.Type)
		assert.Equal(t, v.Document, stored.Document)
		require.NotNil(t, stored.SvarfristAt)
		assert.True(t, stored.SvarfristAt.Equal(*v.SvarfristAt))
		assert.Nil(t, stored.JournalpostID)
		assert.Nil(t, stored.PublishedAt)
	})

	t.Run("get by unknown assessment", func(t *testing.T) {
		reset(t)
		_, err := store.GetByAssessment(ctx, domain.NewAssessmentID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("unarchived batch carries the pdf and journalforing clears it", func(t *testing.T) {
		reset(t)
		assessment := seedAssessment(t, ctx, cases)
		v := newTestVarsel(t, assessment.ID)
		require.NoError(t, store.Create(ctx, testPerson, v, []byte("%PDF-1.7")))

		unarchived, err := store.GetUnarchived(ctx)
		require.NoError(t, err)
		require.Len(t, unarchived, 1)
		assert.Equal(t, testPerson, unarchived[0].PersonIdent)
		assert.Equal(t, []byte("%PDF-1.7"), unarchived[0].PDF)

		require.NoError(t, v.Journalfor("journalpost-1"))
		require.NoError(t, store.MarkJournalfort(ctx, v))

		unarchived, err = store.GetUnarchived(ctx)
		require.NoError(t, err)
		assert.Empty(t, unarchived)

		stored, err := store.GetByAssessment(ctx, assessment.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.JournalpostID)
		assert.Equal(t, "journalpost-1", *stored.JournalpostID)
	})

	t.Run("journalforing is recorded at most once", func(t *testing.T) {
		reset(t)
		assessment := seedAssessment(t, ctx, cases)
		v := newTestVarsel(t, assessment.ID)
		require.NoError(t, store.Create(ctx, testPerson, v, []byte("%PDF-1.7")))

		require.NoError(t, v.Journalfor("journalpost-1"))
		require.NoError(t, store.MarkJournalfort(ctx, v))
		assert.ErrorIs(t, store.MarkJournalfort(ctx, v), sentinel.ErrNotFound)
	})

	t.Run("publishing requires journalforing first", func(t *testing.T) {
		reset(t)
		assessment := seedAssessment(t, ctx, cases)
		v := newTestVarsel(t, assessment.ID)
		require.NoError(t, store.Create(ctx, testPerson, v, []byte("%PDF-1.7")))

		unpublished, err := store.GetUnpublished(ctx)
		require.NoError(t, err)
		assert.Empty(t, unpublished, "unarchived varsel must not be eligible for publishing")

		now := time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)
		v.PublishedAt = &now
		assert.ErrorIs(t, store.MarkPublished(ctx, v), sentinel.ErrNotFound)
		v.PublishedAt = nil

		require.NoError(t, v.Journalfor("journalpost-1"))
		require.NoError(t, store.MarkJournalfort(ctx, v))

		unpublished, err = store.GetUnpublished(ctx)
		require.NoError(t, err)
		require.Len(t, unpublished, 1)

		require.NoError(t, v.Publish(now))
		require.NoError(t, store.MarkPublished(ctx, v))

		unpublished, err = store.GetUnpublished(ctx)
		require.NoError(t, err)
		assert.Empty(t, unpublished)
	})

	t.Run("expired batch respects the svarfrist and fires once", func(t *testing.T) {
		reset(t)
		assessment := seedAssessment(t, ctx, cases)
		v := newTestVarsel(t, assessment.ID)
		require.NoError(t, store.Create(ctx, testPerson, v, []byte("%PDF-1.7")))

		beforeFrist := time.Date(2024, time.March, 19, 0, 0, 0, 0, time.UTC)
		expired, err := store.GetExpired(ctx, beforeFrist)
		require.NoError(t, err)
		assert.Empty(t, expired)

		afterFrist := time.Date(2024, time.March, 21, 0, 0, 0, 0, time.UTC)
		expired, err = store.GetExpired(ctx, afterFrist)
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, v.ID, expired[0].Varsel.ID)

		require.NoError(t, v.MarkExpiredPublished(afterFrist))
		require.NoError(t, store.MarkExpiredPublished(ctx, v))

		expired, err = store.GetExpired(ctx, afterFrist)
		require.NoError(t, err)
		assert.Empty(t, expired)
	})
}
