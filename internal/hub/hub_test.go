package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/dto"
	"popup-rooms/internal/repository/mocks"
	"popup-rooms/internal/service"
)

type hubFixture struct {
	hub      *Hub
	roomRepo *mocks.RoomRepository
	invRepo  *mocks.InvitationRepository
	userRepo *mocks.UserRepository
	msgRepo  *mocks.MessageRepository
}

func newHubFixture() *hubFixture {
	return newHubFixtureWithState(nil)
}

func newHubFixtureWithState(stateRepo *mocks.StateRepository) *hubFixture {
	f := &hubFixture{
		roomRepo: new(mocks.RoomRepository),
		invRepo:  new(mocks.InvitationRepository),
		userRepo: new(mocks.UserRepository),
		msgRepo:  new(mocks.MessageRepository),
	}
	lifecycle := service.NewLifecycleService(f.roomRepo, nil)
	roomService := service.NewRoomService(f.roomRepo, f.invRepo, f.userRepo, f.msgRepo, lifecycle)
	chatService := service.NewChatService(f.msgRepo, f.roomRepo, lifecycle)
	if stateRepo != nil {
		f.hub = NewHub(chatService, roomService, stateRepo)
	} else {
		f.hub = NewHub(chatService, roomService, nil)
	}
	return f
}

func (f *hubFixture) liveRoom(id uint) *domain.Room {
	return &domain.Room{
		ID:        id,
		Type:      domain.RoomPublic,
		Status:    domain.RoomLive,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}
}

// newTestClient builds a client without a transport; the pumps never run, so
// queued events stay in the send channel for inspection.
func newTestClient(h *Hub, authUserID uint) *Client {
	return NewClient(h, nil, authUserID)
}

// nextEvent pops one queued event and returns its decoded JSON object.
func nextEvent(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case payload := <-c.send:
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	default:
		t.Fatal("expected a queued event, send channel is empty")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("expected no queued event, got %s", payload)
	default:
	}
}

// bindClient runs a successful init for a room the user participates in.
func (f *hubFixture) bindClient(t *testing.T, c *Client, roomID uint) {
	t.Helper()
	f.roomRepo.On("FindByID", mock.Anything, roomID).Return(f.liveRoom(roomID), nil).Once()
	f.roomRepo.On("IsParticipant", mock.Anything, roomID, c.AuthUserID()).Return(true, nil).Once()

	f.hub.HandleFrame(context.Background(), c, initFrame(c.AuthUserID(), roomID))

	event := nextEvent(t, c)
	require.Equal(t, dto.EventInit, event["type"], "init must be acknowledged")
	require.True(t, c.bound())
}

func initFrame(userID, roomID uint) []byte {
	raw, _ := json.Marshal(map[string]interface{}{"type": "init", "userId": userID, "roomId": roomID})
	return raw
}

func TestHub_Init_BindsAndRegisters(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)

	f.bindClient(t, client, 12)

	assert.Equal(t, uint(5), client.UserID())
	assert.Equal(t, uint(12), client.RoomID())
	assert.Equal(t, 1, f.hub.ConnectionCount(12))
}

func TestHub_Init_UserMismatch(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)

	f.hub.HandleFrame(context.Background(), client, initFrame(6, 12))

	event := nextEvent(t, client)
	assert.Equal(t, dto.EventError, event["type"])
	assert.False(t, client.bound())
	assert.Equal(t, 0, f.hub.ConnectionCount(12))
}

func TestHub_Init_AccessDenied(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)

	room := f.liveRoom(12)
	room.Type = domain.RoomPrivate
	room.CreatorID = 1
	f.roomRepo.On("FindByID", mock.Anything, uint(12)).Return(room, nil).Once()
	f.roomRepo.On("IsParticipant", mock.Anything, uint(12), uint(5)).Return(false, nil).Once()

	f.hub.HandleFrame(context.Background(), client, initFrame(5, 12))

	event := nextEvent(t, client)
	assert.Equal(t, dto.EventError, event["type"])
	assert.False(t, client.bound())
}

func TestHub_Init_GlobalChannelSkipsAccessCheck(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)

	f.hub.HandleFrame(context.Background(), client, initFrame(5, GlobalRoom))

	event := nextEvent(t, client)
	assert.Equal(t, dto.EventInit, event["type"])
	assert.True(t, client.bound())
	assert.Equal(t, 1, f.hub.ConnectionCount(GlobalRoom))
	f.roomRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestHub_Init_Twice(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)
	f.bindClient(t, client, 12)

	f.hub.HandleFrame(context.Background(), client, initFrame(5, 12))

	event := nextEvent(t, client)
	assert.Equal(t, dto.EventError, event["type"])
	assert.Equal(t, 1, f.hub.ConnectionCount(12), "rebinding must not duplicate registration")
}

func TestHub_MalformedFrame_NonFatal(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)
	f.bindClient(t, client, 12)

	f.hub.HandleFrame(context.Background(), client, []byte(`{"type":"subscribe"}`))

	event := nextEvent(t, client)
	assert.Equal(t, dto.EventError, event["type"])
	// The session survives and stays registered.
	assert.True(t, client.bound())
	assert.Equal(t, 1, f.hub.ConnectionCount(12))
}

func TestHub_Message_RequiresInit(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)

	f.hub.HandleFrame(context.Background(), client, []byte(`{"type":"message","content":"hi"}`))

	event := nextEvent(t, client)
	assert.Equal(t, dto.EventError, event["type"])
	f.msgRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestHub_Message_GlobalChannelRejected(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)
	f.hub.HandleFrame(context.Background(), client, initFrame(5, GlobalRoom))
	nextEvent(t, client) // init ack

	f.hub.HandleFrame(context.Background(), client, []byte(`{"type":"message","content":"hi"}`))

	event := nextEvent(t, client)
	assert.Equal(t, dto.EventError, event["type"])
	f.msgRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestHub_Message_BroadcastsToRoom(t *testing.T) {
	f := newHubFixture()
	sender := newTestClient(f.hub, 5)
	peer := newTestClient(f.hub, 6)
	outsider := newTestClient(f.hub, 7)
	f.bindClient(t, sender, 12)
	f.bindClient(t, peer, 12)
	f.bindClient(t, outsider, 99)

	// The message frame runs the chat gate again.
	f.roomRepo.On("FindByID", mock.Anything, uint(12)).Return(f.liveRoom(12), nil).Once()
	f.roomRepo.On("IsParticipant", mock.Anything, uint(12), uint(5)).Return(true, nil).Once()
	f.msgRepo.On("CreateMessage", mock.Anything, mock.AnythingOfType("*domain.Message")).
		Run(func(args mock.Arguments) {
			msgArg := args.Get(1).(*domain.Message)
			msgArg.ID = 40
			msgArg.CreatedAt = time.Now()
		}).
		Return(nil).
		Once()

	f.hub.HandleFrame(context.Background(), sender, []byte(`{"type":"message","content":"hi"}`))

	for _, c := range []*Client{sender, peer} {
		event := nextEvent(t, c)
		assert.Equal(t, dto.EventMessage, event["type"])
		assert.Equal(t, "id:40", event["dedupKey"])
	}
	assertNoEvent(t, outsider)
}

func TestHub_Message_RejectionGoesToSenderOnly(t *testing.T) {
	f := newHubFixture()
	sender := newTestClient(f.hub, 5)
	peer := newTestClient(f.hub, 6)
	f.bindClient(t, sender, 12)
	f.bindClient(t, peer, 12)

	// Room closed by the time the frame arrives.
	closed := f.liveRoom(12)
	closed.Status = domain.RoomClosed
	closed.StartTime = time.Now().Add(-3 * time.Hour)
	closed.EndTime = time.Now().Add(-2 * time.Hour)
	f.roomRepo.On("FindByID", mock.Anything, uint(12)).Return(closed, nil).Once()
	f.roomRepo.On("IsParticipant", mock.Anything, uint(12), uint(5)).Return(true, nil).Once()

	f.hub.HandleFrame(context.Background(), sender, []byte(`{"type":"message","content":"hi"}`))

	event := nextEvent(t, sender)
	assert.Equal(t, dto.EventError, event["type"])
	assertNoEvent(t, peer)
}

func TestHub_Reaction_Broadcasts(t *testing.T) {
	f := newHubFixture()
	sender := newTestClient(f.hub, 5)
	f.bindClient(t, sender, 12)

	f.roomRepo.On("FindByID", mock.Anything, uint(12)).Return(f.liveRoom(12), nil).Once()
	f.roomRepo.On("IsParticipant", mock.Anything, uint(12), uint(5)).Return(true, nil).Once()
	f.msgRepo.On("CreateReaction", mock.Anything, mock.AnythingOfType("*domain.Reaction")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Reaction).ID = 50 }).
		Return(nil).
		Once()

	f.hub.HandleFrame(context.Background(), sender, []byte(`{"type":"reaction","reactionType":"👍"}`))

	event := nextEvent(t, sender)
	assert.Equal(t, dto.EventReaction, event["type"])
	assert.Equal(t, "id:50", event["dedupKey"])
}

func TestHub_Unregister_DropsEmptyBucket(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)
	f.bindClient(t, client, 12)

	f.hub.Unregister(client)

	assert.Equal(t, 0, f.hub.ConnectionCount(12))
	f.hub.mu.RLock()
	_, exists := f.hub.rooms[12]
	f.hub.mu.RUnlock()
	assert.False(t, exists, "empty buckets must be dropped")
}

func TestHub_Unregister_RemovesBoundClient(t *testing.T) {
	f := newHubFixture()
	staying := newTestClient(f.hub, 5)
	leaving := newTestClient(f.hub, 6)
	f.bindClient(t, staying, 12)
	f.bindClient(t, leaving, 12)

	f.hub.Unregister(leaving)

	assert.Equal(t, 1, f.hub.ConnectionCount(12))

	// Broadcasts after the disconnect reach the remaining client only.
	f.hub.Broadcast(12, dto.NewRoomStatusUpdate(f.liveRoom(12)))
	event := nextEvent(t, staying)
	assert.Equal(t, dto.EventRoomStatusUpdate, event["type"])
}

func TestHub_Unregister_DecrementsPresence(t *testing.T) {
	stateRepo := new(mocks.StateRepository)
	f := newHubFixtureWithState(stateRepo)
	client := newTestClient(f.hub, 5)

	stateRepo.On("IncrPresence", mock.Anything, uint(12)).Return(int64(1), nil).Once()
	f.bindClient(t, client, 12)

	stateRepo.On("DecrPresence", mock.Anything, uint(12)).Return(int64(0), nil).Once()
	f.hub.Unregister(client)

	stateRepo.AssertExpectations(t)
}

func TestHub_Unregister_Idempotent(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)
	f.bindClient(t, client, 12)

	f.hub.Unregister(client)
	f.hub.Unregister(client) // must not panic or double-close
}

func TestHub_Unregister_UnboundClient(t *testing.T) {
	f := newHubFixture()
	client := newTestClient(f.hub, 5)

	// Dropping a connection that never sent init is a clean no-op.
	f.hub.Unregister(client)
	assert.Equal(t, 0, f.hub.ConnectionCount(GlobalRoom))
}

func TestHub_Broadcast_SkipsClosedConnections(t *testing.T) {
	f := newHubFixture()
	stale := newTestClient(f.hub, 5)
	fresh := newTestClient(f.hub, 6)
	f.bindClient(t, stale, 12)
	f.bindClient(t, fresh, 12)

	// Mark closed without unregistering, mimicking a transport that died
	// mid-broadcast.
	stale.markClosed()

	f.hub.Broadcast(12, dto.NewRoomStatusUpdate(f.liveRoom(12)))

	event := nextEvent(t, fresh)
	assert.Equal(t, dto.EventRoomStatusUpdate, event["type"])
	assertNoEvent(t, stale)
}

func TestHub_NotifyUser(t *testing.T) {
	f := newHubFixture()
	target1 := newTestClient(f.hub, 5)
	target2 := newTestClient(f.hub, 5)
	other := newTestClient(f.hub, 6)
	f.bindClient(t, target1, 12)
	f.bindClient(t, target2, 99)
	f.bindClient(t, other, 12)

	f.hub.NotifyUser(5, dto.NewRoomInvitationEvent(f.liveRoom(44), "You have been invited to a room"))

	for _, c := range []*Client{target1, target2} {
		event := nextEvent(t, c)
		assert.Equal(t, dto.EventRoomInvitation, event["type"])
	}
	assertNoEvent(t, other)
}
