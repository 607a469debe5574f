package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Business errors returned by the service layer. The HTTP layer maps these to
// status codes; the live channel maps them to error frames.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrValidation           = errors.New("invalid input")
	ErrRoomNotLive          = errors.New("room is not live")
	ErrRoomFull             = errors.New("room is at capacity")
	ErrNotInvited           = errors.New("no invitation for this room")
	ErrNotParticipant       = errors.New("user is not a participant of this room")
	ErrNotCreator           = errors.New("only the room creator may do this")
	ErrAccessDenied         = errors.New("access to this room denied")
	ErrDuplicateInvitation  = errors.New("invitation already exists")
	ErrInternalServer       = errors.New("internal server error")
)

// ValidationError carries field-level detail for 400 responses. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// newValidationError builds a single-field validation error.
func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
