package dto

import "popup-rooms/internal/domain"

// Server-to-client event types.
const (
	EventInit             = "init"
	EventMessage          = "message"
	EventReaction         = "reaction"
	EventRoomStatusUpdate = "room_status_update"
	EventRoomCreated      = "room_created"
	EventRoomInvitation   = "room_invitation"
	EventError            = "error"
)

// InitAck acknowledges a successful init frame.
type InitAck struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

func NewInitAck() InitAck { return InitAck{Type: EventInit, Success: true} }

// MessageEvent carries a persisted message to room subscribers. DedupKey is
// the canonical identity receivers collapse duplicates on (see EventKey).
type MessageEvent struct {
	Type     string          `json:"type"`
	Message  *domain.Message `json:"message"`
	DedupKey string          `json:"dedupKey"`
}

func NewMessageEvent(m *domain.Message) MessageEvent {
	return MessageEvent{
		Type:     EventMessage,
		Message:  m,
		DedupKey: EventKey(m.ID, m.UserID, m.Content, m.CreatedAt),
	}
}

// ReactionEvent carries a persisted reaction to room subscribers.
type ReactionEvent struct {
	Type     string           `json:"type"`
	Reaction *domain.Reaction `json:"reaction"`
	DedupKey string           `json:"dedupKey"`
}

func NewReactionEvent(r *domain.Reaction) ReactionEvent {
	return ReactionEvent{
		Type:     EventReaction,
		Reaction: r,
		DedupKey: EventKey(r.ID, r.UserID, r.Type, r.CreatedAt),
	}
}

// RoomStatusInfo is the trimmed room view sent with status updates.
type RoomStatusInfo struct {
	ID     uint              `json:"id"`
	Title  string            `json:"title"`
	Status domain.RoomStatus `json:"status"`
}

// RoomStatusUpdate notifies subscribers that a room changed lifecycle state.
type RoomStatusUpdate struct {
	Type   string         `json:"type"`
	RoomID uint           `json:"roomId"`
	Room   RoomStatusInfo `json:"room"`
}

func NewRoomStatusUpdate(room *domain.Room) RoomStatusUpdate {
	return RoomStatusUpdate{
		Type:   EventRoomStatusUpdate,
		RoomID: room.ID,
		Room:   RoomStatusInfo{ID: room.ID, Title: room.Title, Status: room.Status},
	}
}

// RoomCreated announces a new public room on the global channel.
type RoomCreated struct {
	Type    string       `json:"type"`
	Room    *domain.Room `json:"room"`
	Message string       `json:"message,omitempty"`
}

func NewRoomCreated(room *domain.Room, message string) RoomCreated {
	return RoomCreated{Type: EventRoomCreated, Room: room, Message: message}
}

// RoomInvitationEvent is pushed to an invited user's connections.
type RoomInvitationEvent struct {
	Type    string       `json:"type"`
	Room    *domain.Room `json:"room"`
	Message string       `json:"message,omitempty"`
}

func NewRoomInvitationEvent(room *domain.Room, message string) RoomInvitationEvent {
	return RoomInvitationEvent{Type: EventRoomInvitation, Room: room, Message: message}
}

// ErrorEvent reports a per-frame failure back to the sender only.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}
