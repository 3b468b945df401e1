package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"course-payments/internal/domains/checkout/service"
	"course-payments/pkg/logger"
)

// ================================================
// CLEANUP EXPIRED CHECKOUTS JOB HANDLER
// ================================================

type CleanupExpiredHandler struct {
	checkoutService service.Service
}

func NewCleanupExpiredHandler(checkoutService service.Service) *CleanupExpiredHandler {
	return &CleanupExpiredHandler{checkoutService: checkoutService}
}

func (h *CleanupExpiredHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logger.Info("Starting CleanupExpiredCheckouts job", nil)
	deleted, err := h.checkoutService.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("cleanup expired checkouts: %w", err)
	}
	logger.Info("Completed CleanupExpiredCheckouts job", map[string]interface{}{
		"deleted_count": deleted,
	})
	return nil
}
