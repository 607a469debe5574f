// Package worker runs the asynq background server.
package worker

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"popup-rooms/internal/hub"
	"popup-rooms/internal/service"
	"popup-rooms/internal/tasks"
)

// Server wraps the asynq worker with its registered handlers.
type Server struct {
	server    *asynq.Server
	log       *logrus.Entry
	lifecycle *service.LifecycleService
	hub       *hub.Hub
}

// NewServer creates the worker server. Handlers are registered in Start.
func NewServer(redisOpt asynq.RedisClientOpt, lifecycle *service.LifecycleService, h *hub.Hub, logger *logrus.Logger) *Server {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &Server{
		server:    server,
		log:       logEntry,
		lifecycle: lifecycle,
		hub:       h,
	}
}

// Start runs the worker loop. Call from its own goroutine; it blocks until
// Shutdown.
func (s *Server) Start() {
	mux := asynq.NewServeMux()

	sweepHandler := NewRoomStatusSweepHandler(s.lifecycle, s.hub)
	mux.HandleFunc(tasks.TypeRoomStatusSweep, sweepHandler.ProcessTask)

	s.log.Info("Worker server starting...")
	if err := s.server.Run(mux); err != nil {
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			s.log.Fatalf("Could not run worker server: %v", err)
		}
		s.log.Info("Worker server stopped.")
	}
}

// Shutdown stops the worker gracefully.
func (s *Server) Shutdown() {
	s.log.Info("Shutting down worker server...")
	s.server.Shutdown()
	s.log.Info("Worker server shut down complete.")
}
