package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	courseRepo "course-payments/internal/domains/course/repository"
	"course-payments/internal/domains/settlement/service"
	userModel "course-payments/internal/domains/user/model"
	userRepo "course-payments/internal/domains/user/repository"
	"course-payments/internal/infrastructure/email"
	"course-payments/internal/shared"
	"course-payments/internal/shared/utils"
	"course-payments/pkg/logger"
)

// ================================================
// SETTLEMENT RECEIPT JOB HANDLER
// ================================================

type SendNotificationHandler struct {
	settlements service.Service
	contacts    userRepo.ContactReader
	courses     courseRepo.Reader
	mailer      email.EmailService
	location    *time.Location
}

func NewSendNotificationHandler(
	settlements service.Service,
	contacts userRepo.ContactReader,
	courses courseRepo.Reader,
	mailer email.EmailService,
	location *time.Location,
) *SendNotificationHandler {
	if location == nil {
		location = time.UTC
	}
	return &SendNotificationHandler{
		settlements: settlements,
		contacts:    contacts,
		courses:     courses,
		mailer:      mailer,
		location:    location,
	}
}

func (h *SendNotificationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.SettlementNotificationPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	trx, err := h.settlements.Get(ctx, payload.BookingTrxID)
	if err != nil {
		return fmt.Errorf("load settlement %s: %w", payload.BookingTrxID, err)
	}

	contact, err := h.contacts.FindContact(ctx, trx.UserID)
	if err != nil {
		if errors.Is(err, userModel.ErrUserNotFound) {
			logger.Warn("Receipt skipped, user not found", map[string]interface{}{
				"booking_trx_id": trx.BookingTrxID,
				"user_id":        trx.UserID.String(),
			})
			return nil
		}
		return fmt.Errorf("load contact: %w", err)
	}

	courseTitle := "your course"
	if course, err := h.courses.FindByID(ctx, trx.CourseID); err == nil {
		courseTitle = course.Title
	}

	data := email.ReceiptData{
		Email:        contact.Email,
		Name:         contact.DisplayName(),
		BookingTrxID: trx.BookingTrxID,
		CourseTitle:  courseTitle,
		GrandTotal:   trx.GrandTotal,
		PaymentType:  trx.PaymentType,
	}
	if trx.EndedAt != nil {
		data.AccessUntil = trx.EndedAt.In(h.location).Format("02 Jan 2006")
	}

	if err := h.mailer.SendSettlementReceipt(ctx, data); err != nil {
		return err
	}

	logger.Info("Settlement receipt sent", map[string]interface{}{
		"booking_trx_id": trx.BookingTrxID,
		"to":             contact.Email,
	})
	return nil
}
