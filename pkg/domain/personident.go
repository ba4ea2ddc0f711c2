package domain

import (
	dErrors "aktivitetskrav/pkg/domain-errors"
)

// PersonIdent is an 11-digit national identity number. It is parsed at trust
// boundaries so the rest of the system can assume a well-formed ident.
type PersonIdent string

// ParsePersonIdent validates and returns a PersonIdent.
func ParsePersonIdent(s string) (PersonIdent, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "personident cannot be empty")
	}
	if len(s) != 11 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "personident must be 11 digits")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "personident must be 11 digits")
		}
	}
	return PersonIdent(s), nil
}

func (p PersonIdent) String() string { return string(p) }

func (p PersonIdent) IsNil() bool { return p == "" }
