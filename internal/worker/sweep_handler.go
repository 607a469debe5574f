package worker

import (
	"context"
	"sync/atomic"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"popup-rooms/internal/domain"
	"popup-rooms/internal/dto"
	"popup-rooms/internal/hub"
	"popup-rooms/internal/service"
)

// RoomStatusSweepHandler runs the periodic lifecycle sweep and pushes status
// updates to connected clients. Store failures are logged and swallowed so the
// next tick retries naturally instead of asynq piling up retries of a job the
// schedule will re-enqueue anyway.
type RoomStatusSweepHandler struct {
	lifecycle *service.LifecycleService
	hub       *hub.Hub

	// inFlight keeps a slow sweep from overlapping the next tick.
	inFlight atomic.Bool
}

func NewRoomStatusSweepHandler(lifecycle *service.LifecycleService, h *hub.Hub) *RoomStatusSweepHandler {
	if lifecycle == nil {
		panic("LifecycleService cannot be nil for RoomStatusSweepHandler")
	}
	if h == nil {
		panic("Hub cannot be nil for RoomStatusSweepHandler")
	}
	return &RoomStatusSweepHandler{lifecycle: lifecycle, hub: h}
}

// ProcessTask implements asynq.Handler.
func (h *RoomStatusSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())

	if !h.inFlight.CompareAndSwap(false, true) {
		logCtx.Warn("Previous sweep still running, skipping this tick")
		return nil
	}
	defer h.inFlight.Store(false)

	goingLive, goingClosed, err := h.lifecycle.Sweep(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Room status sweep failed, will retry on next tick")
		return nil
	}

	for i := range goingLive {
		h.announce(&goingLive[i])
	}
	for i := range goingClosed {
		h.announce(&goingClosed[i])
	}

	if n := len(goingLive) + len(goingClosed); n > 0 {
		logCtx.WithField("transitions", n).Info("Room status sweep completed")
	}
	return nil
}

// announce pushes the status change to the room's own subscribers and to the
// global channel, where lobby views listen for rooms opening and closing.
func (h *RoomStatusSweepHandler) announce(room *domain.Room) {
	update := dto.NewRoomStatusUpdate(room)
	h.hub.Broadcast(room.ID, update)
	h.hub.Broadcast(hub.GlobalRoom, update)
}
