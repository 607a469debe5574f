package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/repository"
)

// GormInvitationRepository is the GORM implementation of InvitationRepository.
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewGormInvitationRepository creates a GormInvitationRepository.
func NewGormInvitationRepository(db *gorm.DB) *GormInvitationRepository {
	if db == nil {
		panic("database connection cannot be nil for GormInvitationRepository")
	}
	return &GormInvitationRepository{db: db}
}

func (r *GormInvitationRepository) Create(ctx context.Context, inv *domain.RoomInvitation) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create invitation for room %d: %w", inv.RoomID, err)
	}
	return nil
}

func (r *GormInvitationRepository) FindByID(ctx context.Context, id uint) (*domain.RoomInvitation, error) {
	var inv domain.RoomInvitation
	err := r.db.WithContext(ctx).Preload("Room").First(&inv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("gorm: find invitation by id %d: %w", id, err)
	}
	return &inv, nil
}

func (r *GormInvitationRepository) FindForUser(ctx context.Context, roomID, userID uint) (*domain.RoomInvitation, error) {
	var inv domain.RoomInvitation
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("gorm: find invitation (room %d, user %d): %w", roomID, userID, err)
	}
	return &inv, nil
}

// Accept flips the accepted flag and inserts the participant row in a single
// transaction. A pre-existing participant row is not an error.
func (r *GormInvitationRepository) Accept(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv domain.RoomInvitation
		if err := tx.First(&inv, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrInvitationNotFound
			}
			return fmt.Errorf("gorm: load invitation %d: %w", id, err)
		}
		if inv.UserID == nil {
			// Email invitations are bound to a user account before acceptance.
			return domain.ErrInvalidInvitation
		}
		if err := tx.Model(&inv).Update("accepted", true).Error; err != nil {
			return fmt.Errorf("gorm: accept invitation %d: %w", id, err)
		}
		row := domain.RoomParticipant{RoomID: inv.RoomID, UserID: *inv.UserID}
		if err := tx.Create(&row).Error; err != nil {
			if isDuplicateEntry(err) {
				return nil // already a participant, acceptance still succeeds
			}
			return fmt.Errorf("gorm: add participant on accept (room %d, user %d): %w", inv.RoomID, *inv.UserID, err)
		}
		return nil
	})
}
