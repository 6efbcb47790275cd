package domain

import "errors"

var (
	// ErrInvalidArgument indicates malformed or out-of-range input to a value object or command.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState indicates the operation is not valid for the listing's current status.
	ErrInvalidState = errors.New("operation not valid in current state")
	// ErrNotFound indicates the referenced listing does not exist.
	ErrNotFound = errors.New("listing not found")
	// ErrAlreadyExists indicates a duplicate creation attempt.
	ErrAlreadyExists = errors.New("listing already exists")
	// ErrConcurrencyConflict indicates a version mismatch on update; the caller
	// should re-fetch and retry a bounded number of times.
	ErrConcurrencyConflict = errors.New("concurrency conflict: listing was modified by another process")
)
