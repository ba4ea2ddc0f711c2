// Package models holds the activity-requirement case aggregate: the status
// state machine, the variant-typed assessment model, and the episode snapshot
// the reconciliation engine evaluates cases against.
package models

import (
	"time"

	"aktivitetskrav/pkg/domain"
)

// StoppunktWeeks is the sickness duration at which the activity requirement
// becomes due for assessment.
const StoppunktWeeks = 8

// Stoppunkt computes the deadline for a case from the episode start. Counting
// the start date as day one, the stoppunkt is the last day of week eight:
// 2024-01-01 -> 2024-02-26.
func Stoppunkt(tilfelleStart time.Time) time.Time {
	return tilfelleStart.AddDate(0, 0, StoppunktWeeks*7)
}

// Case tracks one person's activity requirement for a sickness episode.
// Status is kept consistent with the head of Assessments; internal transitions
// (automatic fulfilment, closure) set it directly without an assessment row.
type Case struct {
	ID          domain.CaseID
	PersonIdent domain.PersonIdent
	Status      Status
	StoppunktAt time.Time
	// ReferenceEpisodeStart links the case to the episode that generated it.
	// Nil for manually re-opened cases.
	ReferenceEpisodeStart *time.Time
	// PreviousCaseID chains a re-opened case to the final case it follows.
	PreviousCaseID *domain.CaseID
	Assessments    []*Assessment // newest first
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewFromEpisode creates the case the reconciliation engine derives from an
// episode snapshot. Episodes already graded at their end start out
// automatically fulfilled.
func NewFromEpisode(episode Oppfolgingstilfelle) *Case {
	status := StatusNew
	if episode.GradertAtTilfelleEnd {
		status = StatusAutomatiskOppfylt
	}
	now := time.Now()
	start := episode.TilfelleStart
	return &Case{
		ID:                    domain.NewCaseID(),
		PersonIdent:           episode.PersonIdent,
		Status:                status,
		StoppunktAt:           Stoppunkt(start),
		ReferenceEpisodeStart: &start,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// NewManual creates a re-opened case chained to a previous final case. The
// stoppunkt carries over from the previous case when known.
func NewManual(personident domain.PersonIdent, previous *Case) *Case {
	now := time.Now()
	c := &Case{
		ID:          domain.NewCaseID(),
		PersonIdent: personident,
		Status:      StatusNewAssessment,
		StoppunktAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if previous != nil {
		prevID := previous.ID
		c.PreviousCaseID = &prevID
		c.StoppunktAt = previous.StoppunktAt
	}
	return c
}

// Apply is a pure projection: the assessment becomes the new head and its
// encoded status becomes the case status. Business preconditions are the
// service's job.
func (c *Case) Apply(assessment *Assessment) {
	c.Assessments = append([]*Assessment{assessment}, c.Assessments...)
	c.Status = assessment.Status
	c.UpdatedAt = time.Now()
}

// Close is an administrative override, legal from any status.
func (c *Case) Close() {
	c.Status = StatusLukket
	c.UpdatedAt = time.Now()
}

// AutoFulfil applies the internal AUTOMATISK_OPPFYLT transition. No assessment
// row is recorded for internal outcomes.
func (c *Case) AutoFulfil() {
	c.Status = StatusAutomatiskOppfylt
	c.UpdatedAt = time.Now()
}

// UpdateStoppunkt recomputes the deadline from an episode start and reports
// whether it changed.
func (c *Case) UpdateStoppunkt(tilfelleStart time.Time) bool {
	stoppunkt := Stoppunkt(tilfelleStart)
	if c.StoppunktAt.Equal(stoppunkt) {
		return false
	}
	c.StoppunktAt = stoppunkt
	start := tilfelleStart
	c.ReferenceEpisodeStart = &start
	c.UpdatedAt = time.Now()
	return true
}

// Gjelder reports whether this case belongs to the episode: the stoppunkt falls
// strictly after the episode start and at or before the episode end.
func (c *Case) Gjelder(episode Oppfolgingstilfelle) bool {
	return c.StoppunktAt.After(episode.TilfelleStart) && !c.StoppunktAt.After(episode.TilfelleEnd)
}

// HeadAssessment returns the most recent assessment, or nil.
func (c *Case) HeadAssessment() *Assessment {
	if len(c.Assessments) == 0 {
		return nil
	}
	return c.Assessments[0]
}

// HasForhandsvarsel reports whether a forewarning assessment exists anywhere in
// the case history. Forewarnings are sent at most once per case.
func (c *Case) HasForhandsvarsel() bool {
	for _, a := range c.Assessments {
		if a.Status == StatusForhandsvarsel {
			return true
		}
	}
	return false
}

// defaultStatus is the status a case falls back to when its assessment history
// is empty: episode-created cases start NY, re-opened cases NY_VURDERING.
func (c *Case) defaultStatus() Status {
	if c.ReferenceEpisodeStart != nil {
		return StatusNew
	}
	return StatusNewAssessment
}

// RemoveAssessment deletes one assessment from the history and recomputes the
// status as a fold over what remains: most recent assessment wins, case default
// when none remain. Used only by the administrative data-correction path.
func (c *Case) RemoveAssessment(assessmentID domain.AssessmentID) bool {
	removed := false
	remaining := make([]*Assessment, 0, len(c.Assessments))
	for _, a := range c.Assessments {
		if a.ID == assessmentID {
			removed = true
			continue
		}
		remaining = append(remaining, a)
	}
	if !removed {
		return false
	}
	c.Assessments = remaining
	if head := c.HeadAssessment(); head != nil {
		c.Status = head.Status
	} else {
		c.Status = c.defaultStatus()
	}
	c.UpdatedAt = time.Now()
	return true
}
