package repository

import "errors"

// Common repository errors. Implementations map driver-specific failures
// (gorm.ErrRecordNotFound, MySQL error 1062) onto these so the service layer
// never inspects driver errors.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry indicates a unique constraint violation.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

// Per-resource aliases, kept for readable errors.Is call sites.
var (
	ErrUserNotFound       = ErrNotFound
	ErrRoomNotFound       = ErrNotFound
	ErrInvitationNotFound = ErrNotFound
)
