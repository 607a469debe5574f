package domain

import "time"

// RoomStatus is the lifecycle state of a room. It is always derived from the
// room's time window against the wall clock, never set arbitrarily.
type RoomStatus string

const (
	RoomScheduled RoomStatus = "scheduled"
	RoomLive      RoomStatus = "live"
	RoomClosed    RoomStatus = "closed"
)

// RoomType controls who may join without an invitation.
type RoomType string

const (
	RoomPublic  RoomType = "public"
	RoomPrivate RoomType = "private"
)

// Room is a time-boxed chat session.
type Room struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:191;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Type        RoomType   `gorm:"size:20;not null;index" json:"type"`
	Tag         string     `gorm:"size:100;index" json:"tag,omitempty"`
	Status      RoomStatus `gorm:"size:20;not null;index" json:"status"`
	StartTime   time.Time  `gorm:"index;not null" json:"startTime"`
	EndTime     time.Time  `gorm:"index;not null" json:"endTime"`
	// MaxParticipants caps the participant count; 0 means no cap.
	MaxParticipants int       `json:"maxParticipants,omitempty"`
	CreatorID       uint      `gorm:"index;not null" json:"creatorId"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"-"`
}

// StatusAt computes the status the room should have at the given instant.
// Transitions are monotonic: scheduled -> live -> closed.
func (r *Room) StatusAt(now time.Time) RoomStatus {
	switch {
	case now.Before(r.StartTime):
		return RoomScheduled
	case now.Before(r.EndTime):
		return RoomLive
	default:
		return RoomClosed
	}
}

// IsLive reports whether the stored status is live.
func (r *Room) IsLive() bool { return r.Status == RoomLive }

// RoomParticipant is the join row between a room and a user. Rows are never
// removed: leaving a room is not part of the model.
type RoomParticipant struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	RoomID   uint      `gorm:"not null;uniqueIndex:idx_room_participant" json:"roomId"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_room_participant;index" json:"userId"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}
