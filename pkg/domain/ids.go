// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "aktivitetskrav/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a CaseID where a VarselID is expected.
type (
	CaseID       uuid.UUID
	AssessmentID uuid.UUID
	VarselID     uuid.UUID
)

// Parse functions - use at trust boundaries (consumers, API inputs).

func ParseCaseID(s string) (CaseID, error) {
	id, err := parseUUID(s, "case ID")
	return CaseID(id), err
}

func ParseAssessmentID(s string) (AssessmentID, error) {
	id, err := parseUUID(s, "assessment ID")
	return AssessmentID(id), err
}

func ParseVarselID(s string) (VarselID, error) {
	id, err := parseUUID(s, "varsel ID")
	return VarselID(id), err
}

// New constructors for freshly created aggregates.

func NewCaseID() CaseID             { return CaseID(uuid.New()) }
func NewAssessmentID() AssessmentID { return AssessmentID(uuid.New()) }
func NewVarselID() VarselID         { return VarselID(uuid.New()) }

// String methods - for logging and persistence.

func (id CaseID) String() string       { return uuid.UUID(id).String() }
func (id AssessmentID) String() string { return uuid.UUID(id).String() }
func (id VarselID) String() string     { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id CaseID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AssessmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VarselID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be the nil UUID")
	}
	return id, nil
}
