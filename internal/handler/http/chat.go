package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"popup-rooms/internal/dto"
	"popup-rooms/internal/hub"
	"popup-rooms/internal/service"
)

// ChatHandler is the request/response fallback for posting messages and
// reactions when a live connection is unavailable. Accepted writes are still
// fanned out to the room's live connections, carrying the same dedup key as
// the live-channel path.
type ChatHandler struct {
	chatService *service.ChatService
	hub         *hub.Hub
}

func NewChatHandler(chatService *service.ChatService, h *hub.Hub) *ChatHandler {
	if chatService == nil || h == nil {
		panic("all dependencies must be non-nil for ChatHandler")
	}
	return &ChatHandler{chatService: chatService, hub: h}
}

type PostMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *ChatHandler) PostMessage(c *gin.Context) {
	userID, ok := AuthenticatedUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c, "id")
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: content is required"})
		return
	}

	msg, err := h.chatService.PostMessage(c.Request.Context(), roomID, userID, req.Content)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	event := dto.NewMessageEvent(msg)
	h.hub.Broadcast(roomID, event)

	logrus.WithFields(logrus.Fields{
		"room_id":    roomID,
		"user_id":    userID,
		"message_id": msg.ID,
	}).Debug("Message posted over fallback path")
	SuccessResponse(c, http.StatusCreated, gin.H{
		"message":  msg,
		"dedupKey": event.DedupKey,
	})
}

type PostReactionRequest struct {
	Type string `json:"type" binding:"required"`
}

func (h *ChatHandler) PostReaction(c *gin.Context) {
	userID, ok := AuthenticatedUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c, "id")
	if !ok {
		return
	}

	var req PostReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: type is required"})
		return
	}

	reaction, err := h.chatService.PostReaction(c.Request.Context(), roomID, userID, req.Type)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	event := dto.NewReactionEvent(reaction)
	h.hub.Broadcast(roomID, event)

	SuccessResponse(c, http.StatusCreated, gin.H{
		"reaction": reaction,
		"dedupKey": event.DedupKey,
	})
}
