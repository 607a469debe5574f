package domain

import "time"

// MaxMessageLength bounds the content of a single chat message.
const MaxMessageLength = 2000

// Message is an append-only chat message. Messages are created only while the
// room is live and the author is a participant.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"index;not null" json:"roomId"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// ReactionTypes is the fixed emoji set clients may react with.
var ReactionTypes = []string{"👍", "❤️", "😂", "🎉", "😮", "👏"}

// IsReactionType reports whether t is one of the allowed emoji.
func IsReactionType(t string) bool {
	for _, rt := range ReactionTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// Reaction records the most recent reaction of a given type by a user in a
// room. At most one row exists per (room, user, type); repeating a reaction
// replaces the previous row rather than duplicating it.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;uniqueIndex:idx_reaction_room_user_type" json:"roomId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reaction_room_user_type" json:"userId"`
	Type      string    `gorm:"size:32;not null;uniqueIndex:idx_reaction_room_user_type" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
