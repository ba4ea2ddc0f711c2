package models

import (
	"time"

	"aktivitetskrav/pkg/domain"
)

// Oppfolgingstilfelle is the externally supplied snapshot of one person's
// sickness episode. Read-only to the core: the reconciliation engine only
// derives decisions from it, never mutates it.
type Oppfolgingstilfelle struct {
	UUID                 string
	PersonIdent          domain.PersonIdent
	TilfelleStart        time.Time
	TilfelleEnd          time.Time
	GradertAtTilfelleEnd bool
	Dodsdato             *time.Time
	// ReferanseTilfelleBitInntruffet orders snapshots for deduplication.
	ReferanseTilfelleBitInntruffet time.Time
}

// DurationInDays is the span between episode start and end. Counted exclusive
// of the start day so that an episode spanning exactly eight weeks ends on its
// stoppunkt date; the 55/56-day boundary is pinned by tests.
func (o Oppfolgingstilfelle) DurationInDays() int {
	return int(o.TilfelleEnd.Sub(o.TilfelleStart).Hours() / 24)
}

// DurationInWeeks is the whole number of weeks the episode has lasted.
func (o Oppfolgingstilfelle) DurationInWeeks() int {
	return o.DurationInDays() / 7
}

// PassererStoppunkt reports whether the episode has crossed the eight-week
// activity-requirement threshold.
func (o Oppfolgingstilfelle) PassererStoppunkt() bool {
	return o.DurationInWeeks() >= StoppunktWeeks
}

// IsDod reports whether the person is recorded deceased.
func (o Oppfolgingstilfelle) IsDod() bool {
	return o.Dodsdato != nil
}

// IsInactive reports whether the episode ended before the given inactivity
// horizon (episodes long since over are left alone).
func (o Oppfolgingstilfelle) IsInactive(horizon time.Time) bool {
	return o.TilfelleEnd.Before(horizon)
}
