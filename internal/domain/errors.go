package domain

import "errors"

var (
	// ErrNotFound signals that the relational source no longer has the id.
	ErrNotFound = errors.New("not found")
	// ErrMappingInput signals a malformed or absent source aggregate.
	ErrMappingInput = errors.New("invalid mapping input")
	// ErrStoreUnavailable signals a transient document store failure.
	// Callers retry with backoff; it is never swallowed.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrInvalidCriteria signals search criteria violating range invariants.
	ErrInvalidCriteria = errors.New("invalid search criteria")
)
