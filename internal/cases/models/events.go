package models

import (
	"time"
)

// CaseChangedEvent is the persisted shape exposed to downstream consumers after
// every status-changing operation. Assessment fields are present only when the
// case has an assessment head.
type CaseChangedEvent struct {
	CaseID      string     `json:"caseId"`
	PersonIdent string     `json:"personIdent"`
	Status      string     `json:"status"`
	StoppunktAt time.Time  `json:"stoppunktAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	SistVurdert *time.Time `json:"sistVurdert,omitempty"`

	AssessmentID string     `json:"assessmentId,omitempty"`
	AssessedBy   string     `json:"assessedBy,omitempty"`
	Rationale    string     `json:"rationale,omitempty"`
	Reasons      []string   `json:"reasons,omitempty"`
	FristAt      *time.Time `json:"fristAt,omitempty"`
}

// NewCaseChangedEvent projects a case onto the outbound event shape.
func NewCaseChangedEvent(c *Case) CaseChangedEvent {
	event := CaseChangedEvent{
		CaseID:      c.ID.String(),
		PersonIdent: c.PersonIdent.String(),
		Status:      string(c.Status),
		StoppunktAt: c.StoppunktAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if head := c.HeadAssessment(); head != nil {
		created := head.CreatedAt
		event.SistVurdert = &created
		event.AssessmentID = head.ID.String()
		event.AssessedBy = head.AssessedBy
		event.Rationale = head.Rationale
		event.FristAt = head.FristAt
		for _, r := range head.Reasons {
			event.Reasons = append(event.Reasons, string(r))
		}
	}
	return event
}
