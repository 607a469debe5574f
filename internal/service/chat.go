package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/repository"
)

// ChatService persists messages and reactions, enforcing the access gate on
// both the live-channel and the fallback request path.
type ChatService struct {
	msgRepo   repository.MessageRepository
	roomRepo  repository.RoomRepository
	lifecycle *LifecycleService
}

// NewChatService creates a ChatService.
func NewChatService(msgRepo repository.MessageRepository, roomRepo repository.RoomRepository, lifecycle *LifecycleService) *ChatService {
	if msgRepo == nil || roomRepo == nil || lifecycle == nil {
		panic("all dependencies must be non-nil for ChatService")
	}
	return &ChatService{msgRepo: msgRepo, roomRepo: roomRepo, lifecycle: lifecycle}
}

// PostMessage appends a message to a live room the author participates in.
// The returned message carries the store-assigned id used for dedup.
func (s *ChatService) PostMessage(ctx context.Context, roomID, userID uint, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newValidationError("content", "content is required")
	}
	if len(content) > domain.MaxMessageLength {
		return nil, newValidationError("content", "content is too long")
	}

	if err := s.gate(ctx, roomID, userID); err != nil {
		return nil, err
	}

	msg := &domain.Message{RoomID: roomID, UserID: userID, Content: content}
	if err := s.msgRepo.CreateMessage(ctx, msg); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"user_id": userID,
		}).Error("Failed to persist message")
		return nil, ErrInternalServer
	}
	return msg, nil
}

// PostReaction records a reaction in a live room, replacing any prior
// reaction of the same type by the same user.
func (s *ChatService) PostReaction(ctx context.Context, roomID, userID uint, reactionType string) (*domain.Reaction, error) {
	if !domain.IsReactionType(reactionType) {
		return nil, newValidationError("type", "unknown reaction type")
	}

	if err := s.gate(ctx, roomID, userID); err != nil {
		return nil, err
	}

	reaction := &domain.Reaction{RoomID: roomID, UserID: userID, Type: reactionType}
	if err := s.msgRepo.CreateReaction(ctx, reaction); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"user_id": userID,
		}).Error("Failed to persist reaction")
		return nil, ErrInternalServer
	}
	return reaction, nil
}

// gate applies the chat access predicate against a freshly reconciled room.
func (s *ChatService) gate(ctx context.Context, roomID, userID uint) error {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return ErrInternalServer
	}
	if _, err := s.lifecycle.Reconcile(ctx, room); err != nil {
		return err
	}
	isParticipant, err := s.roomRepo.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return ErrInternalServer
	}
	if !room.IsLive() {
		return ErrRoomNotLive
	}
	if !isParticipant {
		return ErrNotParticipant
	}
	return nil
}
