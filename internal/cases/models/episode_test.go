package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEpisodeDuration(t *testing.T) {
	start := date(2024, time.January, 1)

	t.Run("55 days is below the eight week threshold", func(t *testing.T) {
		episode := Oppfolgingstilfelle{TilfelleStart: start, TilfelleEnd: start.AddDate(0, 0, 55)}
		assert.Equal(t, 7, episode.DurationInWeeks())
		assert.False(t, episode.PassererStoppunkt())
	})

	t.Run("56 days crosses the threshold", func(t *testing.T) {
		episode := Oppfolgingstilfelle{TilfelleStart: start, TilfelleEnd: start.AddDate(0, 0, 56)}
		assert.Equal(t, 8, episode.DurationInWeeks())
		assert.True(t, episode.PassererStoppunkt())
	})

	t.Run("an episode crossing the threshold always contains its stoppunkt", func(t *testing.T) {
		episode := Oppfolgingstilfelle{TilfelleStart: start, TilfelleEnd: start.AddDate(0, 0, 56)}
		c := NewFromEpisode(episode)
		assert.True(t, c.Gjelder(episode))
	})
}

func TestEpisodeFlags(t *testing.T) {
	now := time.Now()

	t.Run("death date", func(t *testing.T) {
		dod := date(2024, time.March, 1)
		assert.True(t, Oppfolgingstilfelle{Dodsdato: &dod}.IsDod())
		assert.False(t, Oppfolgingstilfelle{}.IsDod())
	})

	t.Run("inactivity horizon", func(t *testing.T) {
		horizon := now.AddDate(0, 0, -30)
		assert.True(t, Oppfolgingstilfelle{TilfelleEnd: now.AddDate(0, 0, -31)}.IsInactive(horizon))
		assert.False(t, Oppfolgingstilfelle{TilfelleEnd: now}.IsInactive(horizon))
	})
}
