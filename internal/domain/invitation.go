package domain

import (
	"errors"
	"time"
)

// ErrInvalidInvitation is returned when an invitation does not target exactly
// one of a user or an email address.
var ErrInvalidInvitation = errors.New("invitation must target exactly one of userId or email")

// RoomInvitation grants access to a private room, either to a known user or to
// a bare email address. Exactly one of UserID/Email is set; use the
// constructors instead of building the struct by hand.
type RoomInvitation struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	RoomID uint  `gorm:"not null;index;uniqueIndex:idx_invite_room_user;uniqueIndex:idx_invite_room_email" json:"roomId"`
	UserID *uint `gorm:"uniqueIndex:idx_invite_room_user" json:"userId,omitempty"`
	// Email invites cover users who have no account yet. MySQL unique indexes
	// admit multiple NULLs, so user-targeted rows do not collide here.
	Email     *string   `gorm:"size:191;uniqueIndex:idx_invite_room_email" json:"email,omitempty"`
	Accepted  bool      `gorm:"not null;default:false" json:"accepted"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Room *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// NewUserInvitation builds an invitation targeting a known user.
func NewUserInvitation(roomID, userID uint) *RoomInvitation {
	return &RoomInvitation{RoomID: roomID, UserID: &userID}
}

// NewEmailInvitation builds an invitation targeting an email address.
func NewEmailInvitation(roomID uint, email string) *RoomInvitation {
	return &RoomInvitation{RoomID: roomID, Email: &email}
}

// Validate enforces the user-XOR-email invariant.
func (i *RoomInvitation) Validate() error {
	hasUser := i.UserID != nil && *i.UserID != 0
	hasEmail := i.Email != nil && *i.Email != ""
	if hasUser == hasEmail {
		return ErrInvalidInvitation
	}
	return nil
}

// IsForUser reports whether this invitation targets the given user ID.
func (i *RoomInvitation) IsForUser(userID uint) bool {
	return i.UserID != nil && *i.UserID == userID
}
