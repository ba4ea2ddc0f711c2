package models

import "time"

// Event is the outbound shape announcing a varsel to downstream consumers,
// both on publication and on reply-window expiry.
type Event struct {
	VarselID    string     `json:"varselId"`
	PersonIdent string     `json:"personIdent"`
	Type        string     `json:"type"`
	SvarfristAt *time.Time `json:"svarfristAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewEvent projects a varsel onto the outbound event shape.
func NewEvent(personident string, v *Varsel) Event {
	return Event{
		VarselID:    v.ID.String(),
		PersonIdent: personident,
		Type:        string(v.Type),
		SvarfristAt: v.SvarfristAt,
		CreatedAt:   v.CreatedAt,
	}
}
