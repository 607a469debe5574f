// Package websocket upgrades authenticated requests onto the live channel.
package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"popup-rooms/internal/hub"
)

// Handler upgrades HTTP requests to websocket connections and hands them to
// the hub. Room binding happens later, over the protocol's init frame, so the
// route carries no room id.
type Handler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

func NewHandler(h *hub.Hub) *Handler {
	if h == nil {
		panic("Hub cannot be nil for websocket Handler")
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// TODO: restrict origins once the frontend host is settled.
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return &Handler{upgrader: upgrader, hub: h}
}

// HandleConnection upgrades the request and runs the connection until the
// transport drops. The JWT middleware has already authenticated the caller;
// the connection starts unbound and must send an init frame before anything
// else.
func (h *Handler) HandleConnection(c *gin.Context) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("Websocket upgrade without authenticated user in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("User ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logCtx.WithError(err).Error("Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, userID)
	logCtx.WithField("conn_id", client.ID()).Info("Websocket connection established")

	// Run blocks until the read side exits, keeping the request goroutine
	// alive for the lifetime of the connection.
	client.Run(c.Request.Context())
}
