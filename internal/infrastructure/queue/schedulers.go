package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"course-payments/internal/config"
	"course-payments/internal/shared"
	"course-payments/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterJobs() error {
	if err := s.registerCleanupExpiredCheckoutsJob(); err != nil {
		return err
	}

	if err := s.registerRetryFailedWebhooksJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// JOB 1: Cleanup Expired Checkouts (every 15 minutes)
// ================================================
func (s *Scheduler) registerCleanupExpiredCheckoutsJob() error {
	payload, err := json.Marshal(shared.EmptyPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeCleanupExpiredCheckouts, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.CleanupCheckoutCron,
		task,
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register CleanupExpiredCheckouts job", err)
		return err
	}

	logger.Info("Registered CleanupExpiredCheckouts", map[string]interface{}{
		"cron": s.jobConfig.CleanupCheckoutCron,
	})
	return nil
}

// ================================================
// JOB 2: Retry Failed Webhooks (every 10 minutes)
// ================================================
// Overlapping runs are harmless: settlement is idempotent per source ref.
func (s *Scheduler) registerRetryFailedWebhooksJob() error {
	payload, err := json.Marshal(shared.EmptyPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeRetryFailedWebhooks, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.RetryWebhooksCron,
		task,
		asynq.Queue(shared.QueueHigh),
		asynq.MaxRetry(0),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register RetryFailedWebhooks job", err)
		return err
	}

	logger.Info("Registered RetryFailedWebhooks", map[string]interface{}{
		"cron": s.jobConfig.RetryWebhooksCron,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
