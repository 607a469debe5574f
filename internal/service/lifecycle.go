package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/repository"
)

// LifecycleService owns the room status state machine. Status is derived from
// the room's time window; this service reconciles stored state with the wall
// clock, lazily on reads and in bulk from the periodic sweeper.
type LifecycleService struct {
	roomRepo  repository.RoomRepository
	stateRepo repository.StateRepository
}

// NewLifecycleService creates a LifecycleService. stateRepo may be nil when
// no status cache is wired (tests).
func NewLifecycleService(roomRepo repository.RoomRepository, stateRepo repository.StateRepository) *LifecycleService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for LifecycleService")
	}
	return &LifecycleService{roomRepo: roomRepo, stateRepo: stateRepo}
}

// Reconcile compares the stored status against the time window and persists a
// correction when they disagree. The passed room is updated in place; the
// return value reports whether a transition happened. This is the documented
// side effect of otherwise idempotent reads.
func (s *LifecycleService) Reconcile(ctx context.Context, room *domain.Room) (bool, error) {
	target := room.StatusAt(time.Now())
	if target == room.Status {
		return false, nil
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": room.ID,
		"from":    room.Status,
		"to":      target,
	})
	if err := s.roomRepo.UpdateStatus(ctx, room.ID, target); err != nil {
		logCtx.WithError(err).Error("Failed to persist room status correction")
		return false, ErrInternalServer
	}
	room.Status = target
	s.cacheStatus(ctx, room)
	logCtx.Info("Room status reconciled")
	return true, nil
}

// Sweep bulk-transitions every room whose window moved on and returns the two
// changed sets. Zero matching rooms is a no-op, not an error.
func (s *LifecycleService) Sweep(ctx context.Context) (goingLive, goingClosed []domain.Room, err error) {
	goingLive, goingClosed, err = s.roomRepo.SweepDue(ctx, time.Now())
	if err != nil {
		return nil, nil, err
	}
	for i := range goingLive {
		s.cacheStatus(ctx, &goingLive[i])
	}
	for i := range goingClosed {
		s.cacheStatus(ctx, &goingClosed[i])
	}
	if len(goingLive)+len(goingClosed) > 0 {
		logrus.WithFields(logrus.Fields{
			"going_live":   len(goingLive),
			"going_closed": len(goingClosed),
		}).Info("Room status sweep applied transitions")
	}
	return goingLive, goingClosed, nil
}

// cacheStatus refreshes the redis status cache. Cache failures are logged and
// swallowed; the relational store stays authoritative.
func (s *LifecycleService) cacheStatus(ctx context.Context, room *domain.Room) {
	if s.stateRepo == nil {
		return
	}
	if err := s.stateRepo.SetRoomStatus(ctx, room.ID, room.Status); err != nil {
		logrus.WithError(err).WithField("room_id", room.ID).Warn("Failed to cache room status")
	}
}
