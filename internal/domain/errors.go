package domain

import "errors"

var (
	// ErrNotFound is returned when an operation references a profile,
	// project or session that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when a write would violate a record
	// invariant, e.g. completed rows exceeding total rows.
	ErrValidation = errors.New("validation error")
	// ErrMigrationFailed is returned when legacy data was read but could not
	// be written to the structured store.
	ErrMigrationFailed = errors.New("migration failed")
	// ErrStorageUnavailable is returned when a durable store cannot be opened,
	// read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
