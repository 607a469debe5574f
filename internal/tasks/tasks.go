// Package tasks names the background task types shared between the scheduler
// and the worker.
package tasks

import "github.com/hibiken/asynq"

// TypeRoomStatusSweep is the periodic task that transitions every room whose
// time window has moved on. It carries no payload; the sweep reads its work
// from the store.
const TypeRoomStatusSweep = "room:status_sweep"

// NewRoomStatusSweepTask builds the sweep task for scheduler registration.
func NewRoomStatusSweepTask() *asynq.Task {
	return asynq.NewTask(TypeRoomStatusSweep, nil)
}
