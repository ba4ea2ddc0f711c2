package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aktivitetskrav/pkg/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const testPerson = domain.PersonIdent("12345678910")

func TestStoppunkt(t *testing.T) {
	t.Run("worked example", func(t *testing.T) {
		assert.Equal(t, date(2024, time.February, 26), Stoppunkt(date(2024, time.January, 1)))
	})

	t.Run("is exactly 56 days after start", func(t *testing.T) {
		start := date(2023, time.June, 15)
		assert.Equal(t, start.AddDate(0, 0, 56), Stoppunkt(start))
	})
}

func TestCaseFromEpisode(t *testing.T) {
	episode := Oppfolgingstilfelle{
		PersonIdent:   testPerson,
		TilfelleStart: date(2024, time.January, 1),
		TilfelleEnd:   date(2024, time.March, 4),
	}

	t.Run("ungraded episode starts NY", func(t *testing.T) {
		c := NewFromEpisode(episode)
		assert.Equal(t, StatusNew, c.Status)
		assert.Equal(t, date(2024, time.February, 26), c.StoppunktAt)
		require.NotNil(t, c.ReferenceEpisodeStart)
		assert.Equal(t, episode.TilfelleStart, *c.ReferenceEpisodeStart)
		assert.False(t, c.ID.IsNil())
	})

	t.Run("graded-at-end episode starts automatically fulfilled", func(t *testing.T) {
		graded := episode
		graded.GradertAtTilfelleEnd = true
		c := NewFromEpisode(graded)
		assert.Equal(t, StatusAutomatiskOppfylt, c.Status)
		assert.True(t, c.Status.IsFinal())
	})
}

func TestCaseManual(t *testing.T) {
	previous := NewFromEpisode(Oppfolgingstilfelle{
		PersonIdent:   testPerson,
		TilfelleStart: date(2024, time.January, 1),
		TilfelleEnd:   date(2024, time.March, 4),
	})
	previous.Close()

	c := NewManual(testPerson, previous)
	assert.Equal(t, StatusNewAssessment, c.Status)
	require.NotNil(t, c.PreviousCaseID)
	assert.Equal(t, previous.ID, *c.PreviousCaseID)
	assert.Equal(t, previous.StoppunktAt, c.StoppunktAt)
	assert.Nil(t, c.ReferenceEpisodeStart)
}

func TestCaseTransitions(t *testing.T) {
	newCase := func() *Case {
		return NewFromEpisode(Oppfolgingstilfelle{
			PersonIdent:   testPerson,
			TilfelleStart: date(2024, time.January, 1),
			TilfelleEnd:   date(2024, time.March, 4),
		})
	}

	t.Run("apply prepends assessment and projects status", func(t *testing.T) {
		c := newCase()
		first, err := NewAssessment(c.ID, StatusAvvent, "Z999999", "venter på behandler", []Reason{ReasonInformasjonBehandler}, nil)
		require.NoError(t, err)
		c.Apply(first)
		assert.Equal(t, StatusAvvent, c.Status)

		second, err := NewAssessment(c.ID, StatusOppfylt, "Z999999", "", []Reason{ReasonFriskmeldt}, nil)
		require.NoError(t, err)
		c.Apply(second)
		assert.Equal(t, StatusOppfylt, c.Status)
		require.Len(t, c.Assessments, 2)
		assert.Equal(t, second.ID, c.HeadAssessment().ID)
	})

	t.Run("close is legal from any status", func(t *testing.T) {
		c := newCase()
		c.AutoFulfil()
		c.Close()
		assert.Equal(t, StatusLukket, c.Status)
	})

	t.Run("auto fulfil records no assessment", func(t *testing.T) {
		c := newCase()
		c.AutoFulfil()
		assert.Equal(t, StatusAutomatiskOppfylt, c.Status)
		assert.Empty(t, c.Assessments)
	})

	t.Run("update stoppunkt reports change", func(t *testing.T) {
		c := newCase()
		assert.False(t, c.UpdateStoppunkt(date(2024, time.January, 1)))
		assert.True(t, c.UpdateStoppunkt(date(2024, time.January, 8)))
		assert.Equal(t, date(2024, time.March, 4), c.StoppunktAt)
	})
}

func TestGjelder(t *testing.T) {
	episode := Oppfolgingstilfelle{
		PersonIdent:   testPerson,
		TilfelleStart: date(2024, time.January, 1),
		TilfelleEnd:   date(2024, time.March, 4),
	}
	c := NewFromEpisode(episode)

	t.Run("stoppunkt inside episode", func(t *testing.T) {
		assert.True(t, c.Gjelder(episode))
	})

	t.Run("stoppunkt at episode end counts", func(t *testing.T) {
		exact := episode
		exact.TilfelleEnd = c.StoppunktAt
		assert.True(t, c.Gjelder(exact))
	})

	t.Run("episode ending before stoppunkt does not match", func(t *testing.T) {
		short := episode
		short.TilfelleEnd = c.StoppunktAt.AddDate(0, 0, -1)
		assert.False(t, c.Gjelder(short))
	})

	t.Run("later episode does not match", func(t *testing.T) {
		later := episode
		later.TilfelleStart = c.StoppunktAt
		later.TilfelleEnd = c.StoppunktAt.AddDate(0, 0, 70)
		assert.False(t, c.Gjelder(later))
	})
}

func TestRemoveAssessment(t *testing.T) {
	c := NewFromEpisode(Oppfolgingstilfelle{
		PersonIdent:   testPerson,
		TilfelleStart: date(2024, time.January, 1),
		TilfelleEnd:   date(2024, time.March, 4),
	})
	avvent, err := NewAssessment(c.ID, StatusAvvent, "Z999999", "venter", []Reason{ReasonAnnet}, nil)
	require.NoError(t, err)
	c.Apply(avvent)
	oppfylt, err := NewAssessment(c.ID, StatusOppfylt, "Z999999", "", []Reason{ReasonGradert}, nil)
	require.NoError(t, err)
	c.Apply(oppfylt)

	t.Run("removing head falls back to most recent remaining", func(t *testing.T) {
		require.True(t, c.RemoveAssessment(oppfylt.ID))
		assert.Equal(t, StatusAvvent, c.Status)
	})

	t.Run("removing last assessment falls back to case default", func(t *testing.T) {
		require.True(t, c.RemoveAssessment(avvent.ID))
		assert.Equal(t, StatusNew, c.Status)
	})

	t.Run("unknown assessment is a no-op", func(t *testing.T) {
		assert.False(t, c.RemoveAssessment(domain.NewAssessmentID()))
	})
}

func TestFinality(t *testing.T) {
	final := []Status{StatusUnntak, StatusOppfylt, StatusIkkeOppfylt, StatusIkkeAktuell, StatusAutomatiskOppfylt, StatusInnstillingOmStans, StatusLukket}
	for _, s := range final {
		assert.True(t, s.IsFinal(), string(s))
	}
	nonFinal := []Status{StatusNew, StatusNewAssessment, StatusAvvent, StatusForhandsvarsel}
	for _, s := range nonFinal {
		assert.False(t, s.IsFinal(), string(s))
	}
}
