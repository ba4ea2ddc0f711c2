package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "aktivitetskrav/pkg/domain-errors"
)

func TestNewVarsel(t *testing.T) {
	t.Run("empty document is rejected", func(t *testing.T) {
		_, err := New(TypeUnntak, nil, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEmptyDocument))

		_, err = New(TypeUnntak, []string{"  ", ""}, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEmptyDocument))
	})

	t.Run("svarfrist is rejected outside the forewarning type", func(t *testing.T) {
		svarfrist := time.Now().AddDate(0, 0, 30)
		for _, typ := range []Type{TypeUnntak, TypeOppfylt, TypeIkkeOppfylt, TypeIkkeAktuell, TypeInnstillingOmStans} {
			_, err := New(typ, []string{"Vurdering."}, &svarfrist)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}

		v, err := New(TypeForhandsvarselStansAvSykepenger, []string{"Forhåndsvarsel om stans."}, &svarfrist)
		require.NoError(t, err)
		require.NotNil(t, v.SvarfristAt)
	})

	t.Run("valid document produces unarchived varsel", func(t *testing.T) {
		v, err := New(TypeOppfylt, []string{"Aktivitetskravet er oppfylt."}, nil)
		require.NoError(t, err)
		assert.Nil(t, v.JournalpostID)
		assert.Nil(t, v.PublishedAt)
		assert.False(t, v.ID.IsNil())
	})
}

func TestVarselLifecycleOrdering(t *testing.T) {
	svarfrist := time.Now().AddDate(0, 0, 30)
	newVarsel := func(t *testing.T) *Varsel {
		t.Helper()
		v, err := New(TypeForhandsvarselStansAvSykepenger, []string{"Forhåndsvarsel om stans."}, &svarfrist)
		require.NoError(t, err)
		return v
	}

	t.Run("archive then publish succeeds", func(t *testing.T) {
		v := newVarsel(t)
		require.NoError(t, v.Journalfor("journalpost-1"))
		require.NoError(t, v.Publish(time.Now()))
		assert.NotNil(t, v.PublishedAt)
	})

	t.Run("publish before archive fails", func(t *testing.T) {
		v := newVarsel(t)
		err := v.Publish(time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("archiving twice fails", func(t *testing.T) {
		v := newVarsel(t)
		require.NoError(t, v.Journalfor("journalpost-1"))
		err := v.Journalfor("journalpost-2")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("publishing twice fails", func(t *testing.T) {
		v := newVarsel(t)
		require.NoError(t, v.Journalfor("journalpost-1"))
		require.NoError(t, v.Publish(time.Now()))
		err := v.Publish(time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestVarselExpiry(t *testing.T) {
	svarfrist := time.Now().AddDate(0, 0, -1)
	v, err := New(TypeForhandsvarselStansAvSykepenger, []string{"Forhåndsvarsel."}, &svarfrist)
	require.NoError(t, err)

	t.Run("past svarfrist is expired", func(t *testing.T) {
		assert.True(t, v.IsExpired(time.Now()))
	})

	t.Run("expiry is announced once", func(t *testing.T) {
		require.NoError(t, v.MarkExpiredPublished(time.Now()))
		assert.False(t, v.IsExpired(time.Now()))
		err := v.MarkExpiredPublished(time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("varsel without svarfrist never expires", func(t *testing.T) {
		plain, err := New(TypeUnntak, []string{"Unntak."}, nil)
		require.NoError(t, err)
		assert.False(t, plain.IsExpired(time.Now()))
	})
}
