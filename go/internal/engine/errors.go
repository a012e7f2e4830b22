package engine

import "errors"

// Error kinds shared across the engine. Each layer wraps these with
// fmt.Errorf("...: %w", ...) so callers can classify failures with errors.Is.
var (
	// ErrNotFound is returned when a station, session or candidate is missing.
	ErrNotFound = errors.New("not found")

	// ErrStorage is returned when a persistence read or write fails.
	ErrStorage = errors.New("storage failure")

	// ErrExternal is returned when the external score sync fails or is
	// misconfigured. The local write may already have been committed.
	ErrExternal = errors.New("external sync failure")

	// ErrInvalidData is returned for malformed input such as an empty guess.
	ErrInvalidData = errors.New("invalid data")

	// ErrNotAllowed is returned by the authorizer for rejected credentials.
	ErrNotAllowed = errors.New("not allowed")
)
