package hub

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Connection session states. A connection starts Unbound (authenticated but
// not attached to any room), binds to exactly one bucket on a successful init
// frame, and is Closed once the transport drops.
const (
	stateUnbound int32 = iota
	stateBound
	stateClosed
)

// Client is one websocket connection. Reads happen only on the ReadPump
// goroutine and writes only on the WritePump goroutine; everything else talks
// to the connection through the buffered send channel.
type Client struct {
	id  string
	hub *Hub
	// Raw transport access stays confined to the two pump goroutines.
	conn Conn

	// authUserID comes from the JWT at upgrade time and never changes.
	authUserID uint

	mu     sync.Mutex
	userID uint
	roomID uint

	state atomic.Int32

	// sendMu arbitrates between enqueue and closeSend so no payload is ever
	// written to a closed channel.
	sendMu     sync.RWMutex
	sendClosed bool
	send       chan []byte
}

// Conn is the slice of *websocket.Conn the pumps use, extracted so tests can
// exercise the session protocol without a live socket.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// NewClient wraps an upgraded connection for the given authenticated user.
// The client is Unbound until its init frame is accepted.
func NewClient(h *Hub, conn Conn, authUserID uint) *Client {
	if h == nil {
		panic("Hub cannot be nil for Client")
	}
	return &Client{
		id:         uuid.NewString(),
		hub:        h,
		conn:       conn,
		authUserID: authUserID,
		send:       make(chan []byte, 64),
	}
}

// ID returns the connection's identifier, used only in logs.
func (c *Client) ID() string { return c.id }

// AuthUserID returns the user authenticated at upgrade time.
func (c *Client) AuthUserID() uint { return c.authUserID }

// UserID returns the bound user id, zero while Unbound.
func (c *Client) UserID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// RoomID returns the bound bucket id. GlobalRoom is a valid binding, so check
// bound() rather than comparing against zero.
func (c *Client) RoomID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) bound() bool {
	return c.state.Load() == stateBound
}

func (c *Client) bind(userID, roomID uint) {
	c.mu.Lock()
	c.userID = userID
	c.roomID = roomID
	c.mu.Unlock()
	c.state.Store(stateBound)
}

// markClosed flips the session to Closed, reporting true if it already was.
func (c *Client) markClosed() bool {
	return c.state.Swap(stateClosed) == stateClosed
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// SendEvent marshals an event and queues it for this connection only.
func (c *Client) SendEvent(event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.log().WithError(err).Error("Failed to marshal client event")
		return
	}
	c.enqueue(payload)
}

// enqueue pushes a pre-marshaled payload without blocking. A closed session
// or a full queue drops the payload; slow consumers are disconnected by the
// write pump rather than stalling broadcasts.
func (c *Client) enqueue(payload []byte) {
	if c.state.Load() == stateClosed {
		return
	}
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.sendClosed {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.log().Warn("Send queue full, dropping event")
	}
}

func (c *Client) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"conn_id":      c.id,
		"auth_user_id": c.authUserID,
	})
}

// Run starts the two pump goroutines and blocks until the read side exits.
func (c *Client) Run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

// readPump consumes frames from the socket and feeds them to the hub one at a
// time, preserving per-connection ordering. It owns teardown: on any read
// error the client is unregistered and the transport closed.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log().WithError(err).Warn("Websocket closed unexpectedly")
			}
			return
		}
		c.hub.HandleFrame(ctx, c, raw)
	}
}

// writePump drains the send queue onto the socket and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log().WithError(err).Debug("Write failed, dropping connection")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
