// Package models holds the Varsel aggregate: the legally significant notice
// generated from an assessment, archived and then delivered to the worker.
package models

import (
	"strings"
	"time"

	"aktivitetskrav/pkg/domain"
	dErrors "aktivitetskrav/pkg/domain-errors"
)

// Type identifies which assessment outcome a varsel was generated from.
type Type string

const (
	TypeForhandsvarselStansAvSykepenger Type = "FORHANDSVARSEL_STANS_AV_SYKEPENGER"
	TypeUnntak                          Type = "UNNTAK"
	TypeOppfylt                         Type = "OPPFYLT"
	TypeIkkeOppfylt                     Type = "IKKE_OPPFYLT"
	TypeIkkeAktuell                     Type = "IKKE_AKTUELL"
	TypeInnstillingOmStans              Type = "INNSTILLING_OM_STANS"
)

// Varsel is created atomically with its assessment, archived once a document
// exists, and published once archived. Archival always precedes publication.
type Varsel struct {
	ID            domain.VarselID
	AssessmentID  domain.AssessmentID
	Type          Type
	Document      []string
	SvarfristAt   *time.Time
	JournalpostID *string
	PublishedAt   *time.Time
	// ExpiredPublishedAt marks that the expiry of the reply window has been
	// announced downstream, so the expiry job emits at most once.
	ExpiredPublishedAt *time.Time
	CreatedAt          time.Time
}

// New builds an unarchived varsel. The document is the structured content the
// renderer turns into the archived PDF; an empty document is rejected because a
// varsel without content has no legal effect.
func New(typ Type, document []string, svarfrist *time.Time) (*Varsel, error) {
	if !hasContent(document) {
		return nil, dErrors.New(dErrors.CodeEmptyDocument, "varsel document must not be empty")
	}
	if svarfrist != nil && typ != TypeForhandsvarselStansAvSykepenger {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "only a forewarning carries a svarfrist")
	}
	return &Varsel{
		ID:          domain.NewVarselID(),
		Type:        typ,
		Document:    document,
		SvarfristAt: svarfrist,
		CreatedAt:   time.Now(),
	}, nil
}

// Journalfor records the archival reference. One-way: a varsel is archived once.
func (v *Varsel) Journalfor(journalpostID string) error {
	if v.JournalpostID != nil {
		return dErrors.New(dErrors.CodeConflict, "varsel is already journalfort")
	}
	if journalpostID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "journalpostID cannot be empty")
	}
	v.JournalpostID = &journalpostID
	return nil
}

// Publish marks the varsel delivered downstream. Archival must precede publication.
func (v *Varsel) Publish(now time.Time) error {
	if v.JournalpostID == nil {
		return dErrors.New(dErrors.CodeConflict, "varsel must be journalfort before publishing")
	}
	if v.PublishedAt != nil {
		return dErrors.New(dErrors.CodeConflict, "varsel is already published")
	}
	v.PublishedAt = &now
	return nil
}

// IsExpired reports whether the reply window has passed without the expiry
// having been announced yet.
func (v *Varsel) IsExpired(asOf time.Time) bool {
	if v.SvarfristAt == nil || v.ExpiredPublishedAt != nil {
		return false
	}
	return v.SvarfristAt.Before(asOf)
}

// MarkExpiredPublished records that the expiry was announced.
func (v *Varsel) MarkExpiredPublished(now time.Time) error {
	if v.ExpiredPublishedAt != nil {
		return dErrors.New(dErrors.CodeConflict, "varsel expiry is already published")
	}
	v.ExpiredPublishedAt = &now
	return nil
}

func hasContent(document []string) bool {
	for _, line := range document {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}
