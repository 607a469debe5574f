package repository

import (
	"context"

	"popup-rooms/internal/domain"
)

// MessageRepository defines storage of chat messages and reactions.
type MessageRepository interface {
	// CreateMessage appends a message and fills its store-assigned ID,
	// CreatedAt and User association.
	CreateMessage(ctx context.Context, msg *domain.Message) error

	// ListByRoom returns the room's messages ordered by CreatedAt ascending.
	ListByRoom(ctx context.Context, roomID uint) ([]domain.Message, error)

	// CreateReaction inserts the reaction, atomically replacing any existing
	// row for the same (room, user, type). Two near-simultaneous calls must
	// never leave duplicate rows.
	CreateReaction(ctx context.Context, reaction *domain.Reaction) error

	// ListReactionsByRoom returns the room's reactions ordered by CreatedAt.
	ListReactionsByRoom(ctx context.Context, roomID uint) ([]domain.Reaction, error)
}
