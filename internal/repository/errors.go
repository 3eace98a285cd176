package repository

import "errors"

// Sentinel errors surfaced by repositories so services can map them onto the
// HTTP error taxonomy.
var (
	// ErrDuplicatePhone signals the unique phone constraint fired on insert.
	ErrDuplicatePhone = errors.New("phone already registered")

	// ErrStaleStatus signals a status-guarded update matched no row: either
	// the row is gone or it already left the expected state.
	ErrStaleStatus = errors.New("row not in expected status")
)
