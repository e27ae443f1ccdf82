package domain

import "errors"

// Sentinel errors shared by services and repositories. Services wrap them with a
// human-readable reason (fmt.Errorf("%w: ...", ErrForbidden)); callers match with errors.Is.
var (
	// ErrNotFound is returned when a user, event, request or category does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed fields, bad date ordering, negative limits or unknown enum values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden is returned when a business rule forbids the operation
	// (illegal state transition, capacity exceeded, duplicate or self request, not the initiator).
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when the store reports a uniqueness violation.
	ErrConflict = errors.New("conflict")
)
