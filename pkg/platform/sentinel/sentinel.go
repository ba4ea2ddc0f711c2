// Package sentinel holds the infrastructure sentinel errors stores return.
// Services translate them into domain errors; callers never see them directly.
package sentinel

import "errors"

// These represent factual states about resources, not validation failures.
// For validation errors use pkg/domain-errors directly.
var (
	// ErrNotFound: the entity does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrConflict: unique constraint hit or an insert raced a duplicate.
	ErrConflict = errors.New("conflict")
)
