package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/repository/mocks"
	"popup-rooms/internal/service"
)

// scheduledRoom returns a room whose window sits entirely in the future.
func scheduledRoom(id uint) *domain.Room {
	return &domain.Room{
		ID:        id,
		Status:    domain.RoomScheduled,
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(2 * time.Hour),
	}
}

func TestLifecycleService_Reconcile_NoTransition(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	lifecycle := service.NewLifecycleService(mockRoomRepo, nil)

	room := scheduledRoom(1)
	changed, err := lifecycle.Reconcile(context.Background(), room)

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.RoomScheduled, room.Status)
	mockRoomRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_Reconcile_ScheduledToLive(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	lifecycle := service.NewLifecycleService(mockRoomRepo, nil)
	ctx := context.Background()

	room := &domain.Room{
		ID:        2,
		Status:    domain.RoomScheduled,
		StartTime: time.Now().Add(-time.Minute),
		EndTime:   time.Now().Add(time.Hour),
	}
	mockRoomRepo.On("UpdateStatus", ctx, uint(2), domain.RoomLive).Return(nil).Once()

	changed, err := lifecycle.Reconcile(ctx, room)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.RoomLive, room.Status, "room must be corrected in place")
	mockRoomRepo.AssertExpectations(t)
}

func TestLifecycleService_Reconcile_ScheduledStraightToClosed(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	lifecycle := service.NewLifecycleService(mockRoomRepo, nil)
	ctx := context.Background()

	// Entire window elapsed while the room sat scheduled.
	room := &domain.Room{
		ID:        3,
		Status:    domain.RoomScheduled,
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
	}
	mockRoomRepo.On("UpdateStatus", ctx, uint(3), domain.RoomClosed).Return(nil).Once()

	changed, err := lifecycle.Reconcile(ctx, room)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.RoomClosed, room.Status)
	mockRoomRepo.AssertExpectations(t)
}

func TestLifecycleService_Reconcile_PersistFailure(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	lifecycle := service.NewLifecycleService(mockRoomRepo, nil)
	ctx := context.Background()

	room := &domain.Room{
		ID:        4,
		Status:    domain.RoomScheduled,
		StartTime: time.Now().Add(-time.Minute),
		EndTime:   time.Now().Add(time.Hour),
	}
	mockRoomRepo.On("UpdateStatus", ctx, uint(4), domain.RoomLive).
		Return(errors.New("db down")).
		Once()

	changed, err := lifecycle.Reconcile(ctx, room)

	require.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.RoomScheduled, room.Status, "stored status must not change on failure")
}

func TestLifecycleService_Reconcile_CacheFailureIsSwallowed(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockStateRepo := new(mocks.StateRepository)
	lifecycle := service.NewLifecycleService(mockRoomRepo, mockStateRepo)
	ctx := context.Background()

	room := &domain.Room{
		ID:        5,
		Status:    domain.RoomScheduled,
		StartTime: time.Now().Add(-time.Minute),
		EndTime:   time.Now().Add(time.Hour),
	}
	mockRoomRepo.On("UpdateStatus", ctx, uint(5), domain.RoomLive).Return(nil).Once()
	mockStateRepo.On("SetRoomStatus", ctx, uint(5), domain.RoomLive).
		Return(errors.New("redis down")).
		Once()

	changed, err := lifecycle.Reconcile(ctx, room)

	require.NoError(t, err, "cache failure must not fail the transition")
	assert.True(t, changed)
	mockStateRepo.AssertExpectations(t)
}

func TestLifecycleService_Sweep(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockStateRepo := new(mocks.StateRepository)
	lifecycle := service.NewLifecycleService(mockRoomRepo, mockStateRepo)
	ctx := context.Background()

	live := []domain.Room{{ID: 10, Status: domain.RoomLive}}
	closed := []domain.Room{{ID: 11, Status: domain.RoomClosed}, {ID: 12, Status: domain.RoomClosed}}
	mockRoomRepo.On("SweepDue", ctx, mock.AnythingOfType("time.Time")).
		Return(live, closed, nil).
		Once()
	mockStateRepo.On("SetRoomStatus", ctx, uint(10), domain.RoomLive).Return(nil).Once()
	mockStateRepo.On("SetRoomStatus", ctx, uint(11), domain.RoomClosed).Return(nil).Once()
	mockStateRepo.On("SetRoomStatus", ctx, uint(12), domain.RoomClosed).Return(nil).Once()

	goingLive, goingClosed, err := lifecycle.Sweep(ctx)

	require.NoError(t, err)
	assert.Len(t, goingLive, 1)
	assert.Len(t, goingClosed, 2)
	mockRoomRepo.AssertExpectations(t)
	mockStateRepo.AssertExpectations(t)
}

func TestLifecycleService_Sweep_EmptyIsNoop(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	lifecycle := service.NewLifecycleService(mockRoomRepo, nil)
	ctx := context.Background()

	mockRoomRepo.On("SweepDue", ctx, mock.AnythingOfType("time.Time")).
		Return(nil, nil, nil).
		Once()

	goingLive, goingClosed, err := lifecycle.Sweep(ctx)

	require.NoError(t, err)
	assert.Empty(t, goingLive)
	assert.Empty(t, goingClosed)
}
