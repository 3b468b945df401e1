package main

import (
	"github.com/hibiken/asynq"

	checkoutJob "course-payments/internal/domains/checkout/job"
	paymentJob "course-payments/internal/domains/payment/job"
	settlementJob "course-payments/internal/domains/settlement/job"
	"course-payments/internal/shared"
	"course-payments/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	settlementNotification *settlementJob.SendNotificationHandler

	// Maintenance handlers
	cleanupCheckouts    *checkoutJob.CleanupExpiredHandler
	retryFailedWebhooks *paymentJob.RetryFailedWebhooksHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		settlementNotification: settlementJob.NewSendNotificationHandler(
			c.SettlementService,
			c.ContactReader,
			c.CourseReader,
			c.Mailer,
			c.Location,
		),
		cleanupCheckouts:    checkoutJob.NewCleanupExpiredHandler(c.CheckoutService),
		retryFailedWebhooks: paymentJob.NewRetryFailedWebhooksHandler(c.PaymentService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeSendSettlementNotification, h.settlementNotification.ProcessTask)

	mux.HandleFunc(shared.TypeCleanupExpiredCheckouts, h.cleanupCheckouts.ProcessTask)
	mux.HandleFunc(shared.TypeRetryFailedWebhooks, h.retryFailedWebhooks.ProcessTask)
}
