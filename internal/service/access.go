package service

import "popup-rooms/internal/domain"

// UserAccess summarizes what the requesting user may do with a room. It is
// computed fresh on every request and never cached.
type UserAccess struct {
	IsCreator     bool `json:"isCreator"`
	IsParticipant bool `json:"isParticipant"`
	CanJoin       bool `json:"canJoin"`
	CanChat       bool `json:"canChat"`
}

// CanView reports whether the user may read the room at all: its creator, a
// participant, or anyone for public rooms.
func CanView(room *domain.Room, userID uint, isParticipant bool) bool {
	return room.CreatorID == userID || isParticipant || room.Type == domain.RoomPublic
}

// CanJoin reports whether the user may become a participant right now: the
// room is live, the user holds access (public room or an invitation) and the
// participant cap is not reached. An existing participant has nothing to
// join; the join operation itself still treats that case as success.
func CanJoin(room *domain.Room, isParticipant, hasInvitation bool, participantCount int64) bool {
	if isParticipant || !room.IsLive() {
		return false
	}
	if room.Type != domain.RoomPublic && !hasInvitation {
		return false
	}
	if room.MaxParticipants > 0 && participantCount >= int64(room.MaxParticipants) {
		return false
	}
	return true
}

// CanChat reports whether the user may send messages and reactions: live room,
// joined user. The same predicate gates both paths.
func CanChat(room *domain.Room, isParticipant bool) bool {
	return room.IsLive() && isParticipant
}

// EvaluateAccess bundles the predicates into the UserAccess view returned by
// the room detail endpoint.
func EvaluateAccess(room *domain.Room, userID uint, isParticipant, hasInvitation bool, participantCount int64) UserAccess {
	return UserAccess{
		IsCreator:     room.CreatorID == userID,
		IsParticipant: isParticipant,
		CanJoin:       CanJoin(room, isParticipant, hasInvitation, participantCount),
		CanChat:       CanChat(room, isParticipant),
	}
}
