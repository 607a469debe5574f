package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/repository"
)

// GormMessageRepository is the GORM implementation of MessageRepository.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a GormMessageRepository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMessageRepository")
	}
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("gorm: create message in room %d: %w", msg.RoomID, err)
	}
	// Attach the author so broadcasts carry user{id, username}.
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, msg.UserID).Error; err == nil {
		msg.User = &user
	}
	return nil
}

func (r *GormMessageRepository) ListByRoom(ctx context.Context, roomID uint) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list messages of room %d: %w", roomID, err)
	}
	return messages, nil
}

// CreateReaction enforces the at-most-one-row-per-(room, user, type)
// invariant with delete-then-insert inside a transaction. The unique index
// backs the invariant under concurrency; the losing writer retries once
// against the fresh state.
func (r *GormMessageRepository) CreateReaction(ctx context.Context, reaction *domain.Reaction) error {
	const attempts = 2
	var err error
	for i := 0; i < attempts; i++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.
				Where("room_id = ? AND user_id = ? AND type = ?", reaction.RoomID, reaction.UserID, reaction.Type).
				Delete(&domain.Reaction{}).Error; err != nil {
				return fmt.Errorf("gorm: delete prior reaction: %w", err)
			}
			reaction.ID = 0
			if err := tx.Create(reaction).Error; err != nil {
				if isDuplicateEntry(err) {
					return repository.ErrDuplicateEntry
				}
				return fmt.Errorf("gorm: create reaction in room %d: %w", reaction.RoomID, err)
			}
			return nil
		})
		if err != repository.ErrDuplicateEntry {
			break
		}
	}
	if err != nil {
		return err
	}
	var user domain.User
	if uerr := r.db.WithContext(ctx).First(&user, reaction.UserID).Error; uerr == nil {
		reaction.User = &user
	}
	return nil
}

func (r *GormMessageRepository) ListReactionsByRoom(ctx context.Context, roomID uint) ([]domain.Reaction, error) {
	var reactions []domain.Reaction
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list reactions of room %d: %w", roomID, err)
	}
	return reactions, nil
}
