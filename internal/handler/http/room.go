package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/dto"
	"popup-rooms/internal/hub"
	"popup-rooms/internal/service"
)

// RoomHandler serves the room surface: listing, creation, detail, joining and
// invitations. It pushes the resulting notifications through the hub so
// connected clients hear about new rooms and invitations without polling.
type RoomHandler struct {
	roomService *service.RoomService
	hub         *hub.Hub
}

func NewRoomHandler(roomService *service.RoomService, h *hub.Hub) *RoomHandler {
	if roomService == nil || h == nil {
		panic("all dependencies must be non-nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService, hub: h}
}

// roomIDParam parses the :id path segment. Zero is rejected along with
// garbage; the global channel id is not addressable over the room routes.
func roomIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		ErrorResponse(c, http.StatusBadRequest, "invalid id parameter")
		return 0, false
	}
	return uint(id), true
}

type CreateRoomRequest struct {
	Title           string                    `json:"title" binding:"required"`
	Description     string                    `json:"description"`
	Type            string                    `json:"type" binding:"required"`
	Tag             string                    `json:"tag"`
	StartTime       time.Time                 `json:"startTime" binding:"required"`
	EndTime         time.Time                 `json:"endTime" binding:"required"`
	MaxParticipants int                       `json:"maxParticipants"`
	Invitations     []service.InvitationInput `json:"invitations"`
}

// Create handles room creation. Public rooms are announced on the global
// channel; each invitation targeting an existing account is pushed to that
// user's live connections.
func (h *RoomHandler) Create(c *gin.Context) {
	userID, ok := AuthenticatedUserID(c)
	if !ok {
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Invalid room creation input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	room, invitations, err := h.roomService.CreateRoom(c.Request.Context(), userID, service.CreateRoomInput{
		Title:           req.Title,
		Description:     req.Description,
		Type:            domain.RoomType(req.Type),
		Tag:             req.Tag,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxParticipants: req.MaxParticipants,
		Invitations:     req.Invitations,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	if room.Type == domain.RoomPublic {
		h.hub.Broadcast(hub.GlobalRoom, dto.NewRoomCreated(room, "A new public room is open"))
	}
	for _, inv := range invitations {
		if inv.UserID != nil {
			h.hub.NotifyUser(*inv.UserID, dto.NewRoomInvitationEvent(room, "You have been invited to a room"))
		}
	}

	logCtx.WithField("room_id", room.ID).Info("Room created successfully")
	SuccessResponse(c, http.StatusCreated, gin.H{
		"message":     "Room created successfully",
		"room":        room,
		"invitations": invitations,
	})
}

// Overview lists the caller's rooms grouped by relationship.
func (h *RoomHandler) Overview(c *gin.Context) {
	userID, ok := AuthenticatedUserID(c)
	if !ok {
		return
	}

	overview, err := h.roomService.Overview(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, overview)
}

// Detail serves the full room view with transcript and the caller's access
// flags.
func (h *RoomHandler) Detail(c *gin.Context) {
	userID, ok := AuthenticatedUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.roomService.Detail(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, detail)
}

// Join adds the caller to a room. Re-joining a room the caller already
// belongs to succeeds without side effects.
func (h *RoomHandler) Join(c *gin.Context) {
	userID, ok := AuthenticatedUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c, "id")
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	alreadyJoined, err := h.roomService.Join(c.Request.Context(), roomID, userID)
	if err != nil {
		logCtx.WithError(err).Warn("Join room failed")
		HandleServiceError(c, err)
		return
	}

	message := "Joined room successfully"
	if alreadyJoined {
		message = "Already a participant"
	}
	logCtx.Info("Join room succeeded")
	SuccessResponse(c, http.StatusOK, gin.H{
		"message":       message,
		"room_id":       roomID,
		"alreadyJoined": alreadyJoined,
	})
}

// Invite lets the room creator add an invitation after the fact. The invited
// user, when connected, is notified immediately.
func (h *RoomHandler) Invite(c *gin.Context) {
	userID, ok := AuthenticatedUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c, "id")
	if !ok {
		return
	}

	var req service.InvitationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	inv, err := h.roomService.Invite(c.Request.Context(), roomID, userID, req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	if inv.UserID != nil && inv.Room != nil {
		h.hub.NotifyUser(*inv.UserID, dto.NewRoomInvitationEvent(inv.Room, "You have been invited to a room"))
	}
	SuccessResponse(c, http.StatusCreated, gin.H{
		"message":    "Invitation created",
		"invitation": inv,
	})
}

// AcceptInvitation accepts one of the caller's invitations and reports the
// room it unlocks.
func (h *RoomHandler) AcceptInvitation(c *gin.Context) {
	userID, ok := AuthenticatedUserID(c)
	if !ok {
		return
	}
	invitationID, ok := roomIDParam(c, "id")
	if !ok {
		return
	}

	room, err := h.roomService.AcceptInvitation(c.Request.Context(), invitationID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"message": "Invitation accepted",
		"room":    room,
	})
}
