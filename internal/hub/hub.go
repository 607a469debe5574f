// Package hub holds the in-process connection registry and the session
// protocol for the live channel. All room/session state lives in this one
// process; swapping the registry for a distributed backing only needs these
// register/unregister/broadcast entry points replaced.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"popup-rooms/internal/dto"
	"popup-rooms/internal/repository"
	"popup-rooms/internal/service"
)

// GlobalRoom is the reserved registry bucket for cross-room notifications:
// new public rooms and invitation pushes, independent of room membership.
const GlobalRoom uint = 0

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer.
	maxFrameSize = 4096
)

// Hub maps room ids to the set of live connections and fans events out to
// them. Mutations and broadcast iteration are coordinated by a single RWMutex;
// sends are non-blocking per client, so one slow connection never holds up a
// fan-out or an unrelated room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]bool

	chatService *service.ChatService
	roomService *service.RoomService
	stateRepo   repository.StateRepository
}

// NewHub creates a Hub. stateRepo may be nil when presence tracking is not
// wired (tests).
func NewHub(chatService *service.ChatService, roomService *service.RoomService, stateRepo repository.StateRepository) *Hub {
	if chatService == nil {
		panic("ChatService cannot be nil for Hub")
	}
	if roomService == nil {
		panic("RoomService cannot be nil for Hub")
	}
	return &Hub{
		rooms:       make(map[uint]map[*Client]bool),
		chatService: chatService,
		roomService: roomService,
		stateRepo:   stateRepo,
	}
}

// register places a bound client in its room bucket.
func (h *Hub) register(roomID uint, client *Client) {
	h.mu.Lock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	h.mu.Unlock()

	client.log().Info("Client registered to hub")
	if h.stateRepo != nil && roomID != GlobalRoom {
		if _, err := h.stateRepo.IncrPresence(context.Background(), roomID); err != nil {
			client.log().WithError(err).Warn("Failed to bump room presence")
		}
	}
}

// Unregister removes the client from its bucket (a no-op for clients that
// never bound) and closes its send channel. Empty buckets are dropped so the
// registry does not grow without bound.
func (h *Hub) Unregister(client *Client) {
	if client == nil {
		return
	}
	// Snapshot the binding before flipping the state: bound() reports false
	// once the session is Closed, and the bucket removal below depends on it.
	wasBound := client.bound()
	roomID := client.RoomID()
	if client.markClosed() {
		return // already unregistered
	}

	if wasBound {
		h.mu.Lock()
		if bucket, ok := h.rooms[roomID]; ok {
			delete(bucket, client)
			if len(bucket) == 0 {
				delete(h.rooms, roomID)
			}
		}
		h.mu.Unlock()

		if h.stateRepo != nil && roomID != GlobalRoom {
			if _, err := h.stateRepo.DecrPresence(context.Background(), roomID); err != nil {
				client.log().WithError(err).Warn("Failed to lower room presence")
			}
		}
	}

	client.closeSend()
	client.log().Info("Client unregistered from hub")
}

// Broadcast sends the event to every connection registered under the room.
// Clients whose send queue is full or whose transport already closed are
// skipped; a dead connection must never abort the fan-out.
func (h *Hub) Broadcast(roomID uint, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to marshal broadcast event")
		return
	}

	h.mu.RLock()
	bucket := h.rooms[roomID]
	recipients := make([]*Client, 0, len(bucket))
	for client := range bucket {
		recipients = append(recipients, client)
	}
	h.mu.RUnlock()

	if len(recipients) == 0 {
		return
	}
	logrus.WithFields(logrus.Fields{
		"room_id":         roomID,
		"recipient_count": len(recipients),
	}).Debug("Broadcasting event")

	for _, client := range recipients {
		client.enqueue(payload)
	}
}

// NotifyUser delivers an event to every connection bound to the given user,
// across all buckets. This scan is O(total connections), fine at the scale of
// small rooms.
func (h *Hub) NotifyUser(userID uint, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to marshal notify event")
		return
	}

	h.mu.RLock()
	var recipients []*Client
	for _, bucket := range h.rooms {
		for client := range bucket {
			if client.bound() && client.UserID() == userID {
				recipients = append(recipients, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range recipients {
		client.enqueue(payload)
	}
}

// ConnectionCount reports the number of live connections in a room bucket.
func (h *Hub) ConnectionCount(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// HandleFrame runs one inbound frame through the session protocol. It is
// called from the owning connection's read loop, so frames from a single
// connection are processed in arrival order while separate connections
// proceed concurrently. A bad frame yields an error event to the sender only;
// the connection state is unchanged.
func (h *Hub) HandleFrame(ctx context.Context, client *Client, raw []byte) {
	frame, err := dto.ParseFrame(raw)
	if err != nil {
		client.log().WithError(err).Warn("Rejected malformed frame")
		client.SendEvent(dto.NewErrorEvent(err.Error()))
		return
	}

	switch frame.Type {
	case dto.FrameInit:
		h.handleInit(ctx, client, frame)
	case dto.FrameMessage:
		h.handleMessage(ctx, client, frame)
	case dto.FrameReaction:
		h.handleReaction(ctx, client, frame)
	}
}

// handleInit moves the connection from Unbound to Bound, registering it under
// the requested room (or the global channel for roomId 0). A failed init is
// not fatal; the client may retry.
func (h *Hub) handleInit(ctx context.Context, client *Client, frame *dto.Frame) {
	if client.bound() {
		client.SendEvent(dto.NewErrorEvent("connection is already initialized"))
		return
	}
	if frame.UserID != client.AuthUserID() {
		client.log().WithField("claimed_user_id", frame.UserID).Warn("Init frame user does not match session")
		client.SendEvent(dto.NewErrorEvent("init userId does not match the authenticated session"))
		return
	}

	if frame.RoomID != GlobalRoom {
		ok, err := h.roomService.CanAccess(ctx, frame.RoomID, frame.UserID)
		if err != nil {
			if errors.Is(err, service.ErrRoomNotFound) {
				client.SendEvent(dto.NewErrorEvent(service.ErrRoomNotFound.Error()))
			} else {
				client.log().WithError(err).Error("Failed to check room access on init")
				client.SendEvent(dto.NewErrorEvent("failed to validate room access"))
			}
			return
		}
		if !ok {
			client.SendEvent(dto.NewErrorEvent(service.ErrAccessDenied.Error()))
			return
		}
	}

	client.bind(frame.UserID, frame.RoomID)
	h.register(frame.RoomID, client)
	client.SendEvent(dto.NewInitAck())
}

func (h *Hub) handleMessage(ctx context.Context, client *Client, frame *dto.Frame) {
	if !client.bound() {
		client.SendEvent(dto.NewErrorEvent("init required before sending messages"))
		return
	}
	if client.RoomID() == GlobalRoom {
		client.SendEvent(dto.NewErrorEvent("the global channel does not accept messages"))
		return
	}

	msg, err := h.chatService.PostMessage(ctx, client.RoomID(), client.UserID(), frame.Content)
	if err != nil {
		client.log().WithError(err).Warn("Message frame rejected")
		client.SendEvent(dto.NewErrorEvent(err.Error()))
		return
	}
	// The broadcast carries the store-assigned id so receivers can collapse
	// the live event against the fallback transcript deterministically.
	h.Broadcast(client.RoomID(), dto.NewMessageEvent(msg))
}

func (h *Hub) handleReaction(ctx context.Context, client *Client, frame *dto.Frame) {
	if !client.bound() {
		client.SendEvent(dto.NewErrorEvent("init required before sending reactions"))
		return
	}
	if client.RoomID() == GlobalRoom {
		client.SendEvent(dto.NewErrorEvent("the global channel does not accept reactions"))
		return
	}

	reaction, err := h.chatService.PostReaction(ctx, client.RoomID(), client.UserID(), frame.ReactionType)
	if err != nil {
		client.log().WithError(err).Warn("Reaction frame rejected")
		client.SendEvent(dto.NewErrorEvent(err.Error()))
		return
	}
	h.Broadcast(client.RoomID(), dto.NewReactionEvent(reaction))
}
