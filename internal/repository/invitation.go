package repository

import (
	"context"

	"popup-rooms/internal/domain"
)

// InvitationRepository defines storage of private-room invitations.
type InvitationRepository interface {
	// Create persists a new invitation. Returns ErrDuplicateEntry when the
	// (room, user) or (room, email) pair already has one.
	Create(ctx context.Context, inv *domain.RoomInvitation) error

	// FindByID returns ErrInvitationNotFound when no such invitation exists.
	FindByID(ctx context.Context, id uint) (*domain.RoomInvitation, error)

	// FindForUser returns the invitation targeting the user in the room,
	// accepted or not, or ErrInvitationNotFound.
	FindForUser(ctx context.Context, roomID, userID uint) (*domain.RoomInvitation, error)

	// Accept marks the invitation accepted and inserts the participant row in
	// one transaction. Idempotent when the participant row already exists.
	Accept(ctx context.Context, id uint) error
}
