package models

import (
	"strings"
	"time"

	varsel "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/pkg/domain"
	dErrors "aktivitetskrav/pkg/domain-errors"
)

// Assessment is a caseworker's (or the system's) recorded decision on a case.
// Immutable once created; a later assessment supersedes it by becoming the new
// head of the case's assessment list.
type Assessment struct {
	ID         domain.AssessmentID
	CaseID     domain.CaseID
	Status     Status
	AssessedBy string
	Rationale  string
	Reasons    []Reason
	FristAt    *time.Time
	Varsel     *varsel.Varsel
	CreatedAt  time.Time
}

// NewAssessment validates the variant invariants and returns the immutable
// assessment. Construction is the only path: invariants cannot be bypassed by
// direct field assignment elsewhere in the module.
func NewAssessment(caseID domain.CaseID, status Status, assessedBy, rationale string, reasons []Reason, frist *time.Time) (*Assessment, error) {
	rule, ok := assessmentRules[status]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidAssessment, "outcome "+string(status)+" cannot be assessed directly")
	}
	if assessedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvalidAssessment, "assessment requires an author")
	}
	if err := validateReasons(status, rule, reasons); err != nil {
		return nil, err
	}
	if err := validateRationale(status, rule, rationale); err != nil {
		return nil, err
	}
	if err := validateFrist(status, rule, frist); err != nil {
		return nil, err
	}
	return &Assessment{
		ID:         domain.NewAssessmentID(),
		CaseID:     caseID,
		Status:     status,
		AssessedBy: assessedBy,
		Rationale:  rationale,
		Reasons:    append([]Reason(nil), reasons...),
		FristAt:    frist,
		CreatedAt:  time.Now(),
	}, nil
}

func validateReasons(status Status, rule assessmentRule, reasons []Reason) error {
	if rule.reasons == nil {
		if len(reasons) > 0 {
			return dErrors.New(dErrors.CodeInvalidAssessment, string(status)+" does not accept reasons")
		}
		return nil
	}
	if len(reasons) == 0 {
		return dErrors.New(dErrors.CodeInvalidAssessment, string(status)+" requires at least one reason")
	}
	for _, r := range reasons {
		if !rule.reasons[r] {
			return dErrors.New(dErrors.CodeInvalidAssessment, "reason "+string(r)+" is not valid for "+string(status))
		}
	}
	return nil
}

func validateRationale(status Status, rule assessmentRule, rationale string) error {
	trimmed := strings.TrimSpace(rationale)
	if rule.rationaleRequired && trimmed == "" {
		return dErrors.New(dErrors.CodeInvalidAssessment, string(status)+" requires a rationale")
	}
	if !rule.rationaleRequired && trimmed != "" {
		return dErrors.New(dErrors.CodeInvalidAssessment, string(status)+" does not accept a rationale")
	}
	return nil
}

func validateFrist(status Status, rule assessmentRule, frist *time.Time) error {
	switch rule.frist {
	case fristRequired:
		if frist == nil {
			return dErrors.New(dErrors.CodeInvalidAssessment, string(status)+" requires a frist")
		}
	case fristForbidden:
		if frist != nil {
			return dErrors.New(dErrors.CodeInvalidAssessment, string(status)+" does not accept a frist")
		}
	}
	return nil
}

// SystemAuthor marks assessments recorded by the system rather than a caseworker.
const SystemAuthor = "SYSTEM"
