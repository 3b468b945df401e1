package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"course-payments/internal/shared"
	"course-payments/pkg/container"
	"course-payments/pkg/logger"
)

type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(c *container.Container, cfg *Config, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		c.RedisClientOpt(),
		asynq.Config{
			Queues: map[string]int{
				shared.QueueHigh:        20,
				shared.QueueDefault:     10,
				shared.QueueLow:         5,
				shared.QueueMaintenance: 2,
			},
			Concurrency: cfg.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.ErrorWithFields("Task failed", err, map[string]interface{}{
					"type": task.Type(),
				})
			}),
		},
	)

	go func() {
		log.Println("[Worker] Starting...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] Failed: %v", err)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits for in-flight tasks up to the server's ShutdownTimeout.
func (s *asynqServer) Shutdown() {
	log.Println("[Worker] Shutting down...")
	s.Server.Shutdown()
	log.Println("[Worker] Gracefully stopped")
}
