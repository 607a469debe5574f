package repository

import (
	"context"
	"time"

	"popup-rooms/internal/domain"
)

// RoomRepository defines storage and retrieval of rooms and their
// participant rows.
type RoomRepository interface {
	// FindByID returns ErrRoomNotFound when no such room exists.
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// Save creates the room, or updates it when ID is already set.
	Save(ctx context.Context, room *domain.Room) error

	// UpdateStatus persists a status transition for a single room.
	UpdateStatus(ctx context.Context, id uint, status domain.RoomStatus) error

	// FindByCreator lists rooms created by the user, newest first.
	FindByCreator(ctx context.Context, userID uint) ([]domain.Room, error)

	// FindByParticipant lists rooms the user has joined.
	FindByParticipant(ctx context.Context, userID uint) ([]domain.Room, error)

	// FindByInvitation lists rooms the user holds an unaccepted invitation to.
	FindByInvitation(ctx context.Context, userID uint) ([]domain.Room, error)

	// FindPublic lists all public rooms that are not closed.
	FindPublic(ctx context.Context) ([]domain.Room, error)

	// SweepDue bulk-transitions rooms whose window has moved on: scheduled
	// rooms whose start passed and live rooms whose end passed. A scheduled
	// room whose entire window elapsed goes straight into the closed set.
	// Returned slices carry the corrected statuses.
	SweepDue(ctx context.Context, now time.Time) (goingLive, goingClosed []domain.Room, err error)

	// AddParticipant inserts the (room, user) join row. Returns
	// ErrDuplicateEntry when the user is already a participant.
	AddParticipant(ctx context.Context, roomID, userID uint) error

	// IsParticipant reports whether the join row exists.
	IsParticipant(ctx context.Context, roomID, userID uint) (bool, error)

	// CountParticipants returns the number of participants in the room.
	CountParticipants(ctx context.Context, roomID uint) (int64, error)

	// ListParticipants returns the users joined to the room.
	ListParticipants(ctx context.Context, roomID uint) ([]domain.User, error)
}
