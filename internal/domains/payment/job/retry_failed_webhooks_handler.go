package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"course-payments/internal/domains/payment/service"
	"course-payments/pkg/logger"
)

// ================================================
// RETRY FAILED WEBHOOKS JOB HANDLER
// ================================================

type RetryFailedWebhooksHandler struct {
	paymentService service.Service
}

func NewRetryFailedWebhooksHandler(paymentService service.Service) *RetryFailedWebhooksHandler {
	return &RetryFailedWebhooksHandler{paymentService: paymentService}
}

func (h *RetryFailedWebhooksHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	resolved, err := h.paymentService.RetryFailedWebhooks(ctx)
	if err != nil {
		return fmt.Errorf("retry failed webhooks: %w", err)
	}
	if resolved > 0 {
		logger.Info("Completed RetryFailedWebhooks job", map[string]interface{}{
			"resolved_count": resolved,
		})
	}
	return nil
}
