package repository

import (
	"context"

	"popup-rooms/internal/domain"
)

// StateRepository holds fast-changing per-room state that does not belong in
// the relational store: the cached lifecycle status and live presence counts.
type StateRepository interface {
	// SetRoomStatus caches the room's current status.
	SetRoomStatus(ctx context.Context, roomID uint, status domain.RoomStatus) error

	// GetRoomStatus returns the cached status, or ErrNotFound on a miss.
	GetRoomStatus(ctx context.Context, roomID uint) (domain.RoomStatus, error)

	// IncrPresence bumps the room's live connection count and returns it.
	IncrPresence(ctx context.Context, roomID uint) (int64, error)

	// DecrPresence lowers the room's live connection count, flooring at zero.
	DecrPresence(ctx context.Context, roomID uint) (int64, error)

	// Presence returns the room's live connection count.
	Presence(ctx context.Context, roomID uint) (int64, error)
}
