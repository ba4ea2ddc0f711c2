package models

import (
	varsel "aktivitetskrav/internal/varsel/models"
)

// Status is the legal state of an activity-requirement case. It is always the
// status encoded by the case's most recent assessment, or the case-level
// default when no assessment exists yet.
type Status string

const (
	StatusNew               Status = "NY"
	StatusNewAssessment     Status = "NY_VURDERING"
	StatusAvvent            Status = "AVVENT"
	StatusForhandsvarsel    Status = "FORHANDSVARSEL"
	StatusUnntak            Status = "UNNTAK"
	StatusOppfylt           Status = "OPPFYLT"
	StatusIkkeOppfylt       Status = "IKKE_OPPFYLT"
	StatusIkkeAktuell       Status = "IKKE_AKTUELL"
	StatusAutomatiskOppfylt Status = "AUTOMATISK_OPPFYLT"
	StatusInnstillingOmStans Status = "INNSTILLING_OM_STANS"
	StatusLukket            Status = "LUKKET"
)

// finalStatuses is the terminal set. It gates re-opening, automatic fulfilment
// of superseded cases, and rejection of further assessments.
var finalStatuses = map[Status]bool{
	StatusUnntak:             true,
	StatusOppfylt:            true,
	StatusIkkeOppfylt:        true,
	StatusIkkeAktuell:        true,
	StatusAutomatiskOppfylt:  true,
	StatusInnstillingOmStans: true,
	StatusLukket:             true,
}

// IsFinal reports whether the status is terminal.
func (s Status) IsFinal() bool { return finalStatuses[s] }

// Reason is a closed per-variant justification code on an assessment.
type Reason string

// Avvent reasons.
const (
	ReasonOppfolgingsplanArbeidsgiver Reason = "OPPFOLGINGSPLAN_ARBEIDSGIVER"
	ReasonInformasjonBehandler        Reason = "INFORMASJON_BEHANDLER"
	ReasonInformasjonSykmeldt         Reason = "INFORMASJON_SYKMELDT"
	ReasonDroftesMedROL               Reason = "DROFTES_MED_ROL"
	ReasonDroftesInternt              Reason = "DROFTES_INTERNT"
	ReasonAnnet                       Reason = "ANNET"
)

// Unntak reasons.
const (
	ReasonMedisinskeGrunner        Reason = "MEDISINSKE_GRUNNER"
	ReasonTilretteleggingIkkeMulig Reason = "TILRETTELEGGING_IKKE_MULIG"
	ReasonSjomennUtenriks          Reason = "SJOMENN_UTENRIKS"
)

// Oppfylt reasons.
const (
	ReasonFriskmeldt Reason = "FRISKMELDT"
	ReasonGradert    Reason = "GRADERT"
	ReasonTiltak     Reason = "TILTAK"
)

// Ikke aktuell reasons. ReasonFriskmeldt is shared with Oppfylt.
const (
	ReasonInnvilgetVTA Reason = "INNVILGET_VTA"
	ReasonAvbruttAnnet Reason = "AVBRUTT_ANNET"
)

type fristRule int

const (
	fristForbidden fristRule = iota
	fristOptional
	fristRequired
)

// assessmentRule captures what a variant requires at construction time.
// Presence in assessmentRules is what makes an outcome constructible; NY and
// AUTOMATISK_OPPFYLT are assigned internally and have no entry on purpose.
type assessmentRule struct {
	reasons           map[Reason]bool // nil = reasons forbidden
	rationaleRequired bool
	frist             fristRule
	varselType        varsel.Type // "" = no varsel for this outcome
}

var assessmentRules = map[Status]assessmentRule{
	StatusAvvent: {
		reasons: reasonSet(
			ReasonOppfolgingsplanArbeidsgiver,
			ReasonInformasjonBehandler,
			ReasonInformasjonSykmeldt,
			ReasonDroftesMedROL,
			ReasonDroftesInternt,
			ReasonAnnet,
		),
		rationaleRequired: true,
		frist:             fristOptional,
	},
	StatusUnntak: {
		reasons: reasonSet(
			ReasonMedisinskeGrunner,
			ReasonTilretteleggingIkkeMulig,
			ReasonSjomennUtenriks,
		),
		rationaleRequired: true,
		varselType:        varsel.TypeUnntak,
	},
	StatusOppfylt: {
		reasons:    reasonSet(ReasonFriskmeldt, ReasonGradert, ReasonTiltak),
		varselType: varsel.TypeOppfylt,
	},
	StatusIkkeOppfylt: {
		varselType: varsel.TypeIkkeOppfylt,
	},
	StatusIkkeAktuell: {
		reasons:    reasonSet(ReasonInnvilgetVTA, ReasonFriskmeldt, ReasonAvbruttAnnet),
		varselType: varsel.TypeIkkeAktuell,
	},
	StatusForhandsvarsel: {
		rationaleRequired: true,
		frist:             fristRequired,
		varselType:        varsel.TypeForhandsvarselStansAvSykepenger,
	},
	StatusInnstillingOmStans: {
		rationaleRequired: true,
		varselType:        varsel.TypeInnstillingOmStans,
	},
}

func reasonSet(reasons ...Reason) map[Reason]bool {
	set := make(map[Reason]bool, len(reasons))
	for _, r := range reasons {
		set[r] = true
	}
	return set
}

// IsConstructible reports whether the outcome can be created through
// NewAssessment. NY and AUTOMATISK_OPPFYLT are internal-only.
func (s Status) IsConstructible() bool {
	_, ok := assessmentRules[s]
	return ok
}

// RequiresVarsel reports whether an assessment with this outcome must carry a
// varsel. True for every constructible outcome except AVVENT.
func (s Status) RequiresVarsel() bool {
	rule, ok := assessmentRules[s]
	return ok && rule.varselType != ""
}

// VarselType returns the notice type derived from the outcome, and false when
// the outcome does not generate a varsel.
func (s Status) VarselType() (varsel.Type, bool) {
	rule, ok := assessmentRules[s]
	if !ok || rule.varselType == "" {
		return "", false
	}
	return rule.varselType, true
}
