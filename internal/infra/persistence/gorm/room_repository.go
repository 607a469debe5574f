package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/repository"
)

// GormRoomRepository is the GORM implementation of RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a GormRoomRepository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Save(room).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (id: %d): %w", room.ID, err)
	}
	return nil
}

func (r *GormRoomRepository) UpdateStatus(ctx context.Context, id uint, status domain.RoomStatus) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("gorm: update room %d status to %s: %w", id, status, err)
	}
	return nil
}

func (r *GormRoomRepository) FindByCreator(ctx context.Context, userID uint) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", userID).
		Order("start_time ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find rooms by creator %d: %w", userID, err)
	}
	return rooms, nil
}

func (r *GormRoomRepository) FindByParticipant(ctx context.Context, userID uint) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).
		Joins("JOIN room_participants rp ON rp.room_id = rooms.id").
		Where("rp.user_id = ?", userID).
		Order("rooms.start_time ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find rooms by participant %d: %w", userID, err)
	}
	return rooms, nil
}

func (r *GormRoomRepository) FindByInvitation(ctx context.Context, userID uint) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).
		Joins("JOIN room_invitations ri ON ri.room_id = rooms.id").
		Where("ri.user_id = ? AND ri.accepted = ?", userID, false).
		Order("rooms.start_time ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find rooms by invitation for user %d: %w", userID, err)
	}
	return rooms, nil
}

func (r *GormRoomRepository) FindPublic(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).
		Where("type = ? AND status <> ?", domain.RoomPublic, domain.RoomClosed).
		Order("start_time ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find public rooms: %w", err)
	}
	return rooms, nil
}

// SweepDue implements the bulk status transition used by the periodic
// sweeper. The target status per room is computed from the wall clock, so a
// scheduled room whose whole window elapsed lands in the closed set directly.
func (r *GormRoomRepository) SweepDue(ctx context.Context, now time.Time) ([]domain.Room, []domain.Room, error) {
	var due []domain.Room
	err := r.db.WithContext(ctx).
		Where("(status = ? AND start_time <= ?) OR (status = ? AND end_time <= ?)",
			domain.RoomScheduled, now, domain.RoomLive, now).
		Find(&due).Error
	if err != nil {
		return nil, nil, fmt.Errorf("gorm: find rooms due for transition: %w", err)
	}

	var goingLive, goingClosed []domain.Room
	for i := range due {
		target := due[i].StatusAt(now)
		if target == due[i].Status {
			continue
		}
		due[i].Status = target
		switch target {
		case domain.RoomLive:
			goingLive = append(goingLive, due[i])
		case domain.RoomClosed:
			goingClosed = append(goingClosed, due[i])
		}
	}

	if err := r.bulkUpdateStatus(ctx, goingLive, domain.RoomLive); err != nil {
		return nil, nil, err
	}
	if err := r.bulkUpdateStatus(ctx, goingClosed, domain.RoomClosed); err != nil {
		return nil, nil, err
	}
	return goingLive, goingClosed, nil
}

func (r *GormRoomRepository) bulkUpdateStatus(ctx context.Context, rooms []domain.Room, status domain.RoomStatus) error {
	if len(rooms) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("id IN ?", ids).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("gorm: bulk update %d rooms to %s: %w", len(ids), status, err)
	}
	return nil
}

func (r *GormRoomRepository) AddParticipant(ctx context.Context, roomID, userID uint) error {
	row := domain.RoomParticipant{RoomID: roomID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: add participant (room %d, user %d): %w", roomID, userID, err)
	}
	return nil
}

func (r *GormRoomRepository) IsParticipant(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.RoomParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check participant (room %d, user %d): %w", roomID, userID, err)
	}
	return count > 0, nil
}

func (r *GormRoomRepository) CountParticipants(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.RoomParticipant{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count participants of room %d: %w", roomID, err)
	}
	return count, nil
}

func (r *GormRoomRepository) ListParticipants(ctx context.Context, roomID uint) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN room_participants rp ON rp.user_id = users.id").
		Where("rp.room_id = ?", roomID).
		Order("rp.joined_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list participants of room %d: %w", roomID, err)
	}
	return users, nil
}
