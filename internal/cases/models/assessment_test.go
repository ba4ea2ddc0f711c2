package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	varsel "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/pkg/domain"
	dErrors "aktivitetskrav/pkg/domain-errors"
)

func TestNewAssessment_ReasonInvariants(t *testing.T) {
	caseID := domain.NewCaseID()

	t.Run("outcome requiring reasons rejects empty reason list", func(t *testing.T) {
		_, err := NewAssessment(caseID, StatusUnntak, "Z999999", "medisinsk begrunnet", nil, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAssessment))
	})

	t.Run("same outcome with one valid reason succeeds", func(t *testing.T) {
		a, err := NewAssessment(caseID, StatusUnntak, "Z999999", "medisinsk begrunnet", []Reason{ReasonMedisinskeGrunner}, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusUnntak, a.Status)
		assert.Equal(t, []Reason{ReasonMedisinskeGrunner}, a.Reasons)
	})

	t.Run("reason from another variant's enum is rejected", func(t *testing.T) {
		_, err := NewAssessment(caseID, StatusUnntak, "Z999999", "medisinsk", []Reason{ReasonGradert}, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAssessment))
	})

	t.Run("outcome forbidding reasons rejects any reason", func(t *testing.T) {
		_, err := NewAssessment(caseID, StatusIkkeOppfylt, "Z999999", "", []Reason{ReasonAnnet}, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAssessment))
	})
}

func TestNewAssessment_RationaleInvariants(t *testing.T) {
	caseID := domain.NewCaseID()
	frist := time.Now().AddDate(0, 0, 21)

	t.Run("forewarning requires rationale", func(t *testing.T) {
		_, err := NewAssessment(caseID, StatusForhandsvarsel, "Z999999", "  ", nil, &frist)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAssessment))
	})

	t.Run("oppfylt forbids rationale", func(t *testing.T) {
		_, err := NewAssessment(caseID, StatusOppfylt, "Z999999", "ser bra ut", []Reason{ReasonFriskmeldt}, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAssessment))
	})
}

func TestNewAssessment_FristInvariants(t *testing.T) {
	caseID := domain.NewCaseID()
	frist := time.Now().AddDate(0, 0, 21)

	t.Run("forewarning requires frist", func(t *testing.T) {
		_, err := NewAssessment(caseID, StatusForhandsvarsel, "Z999999", "varsel om stans", nil, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAssessment))
	})

	t.Run("unntak forbids frist", func(t *testing.T) {
		_, err := NewAssessment(caseID, StatusUnntak, "Z999999", "medisinsk", []Reason{ReasonMedisinskeGrunner}, &frist)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAssessment))
	})

	t.Run("avvent accepts optional frist", func(t *testing.T) {
		a, err := NewAssessment(caseID, StatusAvvent, "Z999999", "avventer info", []Reason{ReasonInformasjonSykmeldt}, &frist)
		require.NoError(t, err)
		require.NotNil(t, a.FristAt)

		a, err = NewAssessment(caseID, StatusAvvent, "Z999999", "avventer info", []Reason{ReasonInformasjonSykmeldt}, nil)
		require.NoError(t, err)
		assert.Nil(t, a.FristAt)
	})
}

func TestNewAssessment_InternalOutcomes(t *testing.T) {
	caseID := domain.NewCaseID()
	for _, status := range []Status{StatusNew, StatusAutomatiskOppfylt, StatusNewAssessment, StatusLukket} {
		t.Run(string(status), func(t *testing.T) {
			_, err := NewAssessment(caseID, status, "Z999999", "", nil, nil)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAssessment))
		})
	}
}

func TestNewAssessment_RequiresAuthor(t *testing.T) {
	_, err := NewAssessment(domain.NewCaseID(), StatusOppfylt, "", "", []Reason{ReasonTiltak}, nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAssessment))
}

func TestVarselMapping(t *testing.T) {
	t.Run("avvent has no varsel", func(t *testing.T) {
		assert.False(t, StatusAvvent.RequiresVarsel())
		_, ok := StatusAvvent.VarselType()
		assert.False(t, ok)
	})

	t.Run("internal outcomes have no varsel", func(t *testing.T) {
		assert.False(t, StatusNew.RequiresVarsel())
		assert.False(t, StatusAutomatiskOppfylt.RequiresVarsel())
	})

	t.Run("mapping is total over notice-requiring outcomes", func(t *testing.T) {
		expected := map[Status]varsel.Type{
			StatusUnntak:             varsel.TypeUnntak,
			StatusOppfylt:            varsel.TypeOppfylt,
			StatusIkkeOppfylt:        varsel.TypeIkkeOppfylt,
			StatusIkkeAktuell:        varsel.TypeIkkeAktuell,
			StatusForhandsvarsel:     varsel.TypeForhandsvarselStansAvSykepenger,
			StatusInnstillingOmStans: varsel.TypeInnstillingOmStans,
		}
		for status, want := range expected {
			require.True(t, status.RequiresVarsel(), string(status))
			got, ok := status.VarselType()
			require.True(t, ok, string(status))
			assert.Equal(t, want, got)
		}
	})
}
