package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	checkoutModel "course-payments/internal/domains/checkout/model"
	courseRepo "course-payments/internal/domains/course/repository"
	"course-payments/internal/domains/settlement/model"
	"course-payments/internal/domains/settlement/repository"
	"course-payments/pkg/database"
	"course-payments/pkg/logger"
)

// =====================================================
// SETTLEMENT SERVICE INTERFACE
// =====================================================
type Service interface {
	// Settle creates the ledger row for a purchase, or returns the existing
	// one for the same BookingID / SourceRef unchanged.
	Settle(ctx context.Context, req model.SettleRequest) (*model.Transaction, error)

	// MarkPaid moves an unpaid row to paid. Already paid is a no-op.
	MarkPaid(ctx context.Context, bookingID, paymentType string) (*model.Transaction, error)

	// SetPaid is the admin entry point; it refuses paid -> unpaid with ErrPaidIsFinal.
	SetPaid(ctx context.Context, bookingID string, req model.UpdatePaidRequest) (*model.Transaction, error)

	RecordManualPayment(ctx context.Context, req model.ManualPaymentRequest) (*model.Transaction, error)
	Reconcile(ctx context.Context, bookingID string) (bool, error)
	Get(ctx context.Context, bookingID string) (*model.Transaction, error)
	FindBySourceRef(ctx context.Context, sourceRef string) (*model.Transaction, error)
	SoftDelete(ctx context.Context, bookingID string) error
}

// UsageCounter counts one discount redemption; false means the limit was hit.
type UsageCounter interface {
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
}

// Reconciler links a correlation row to a booking made outside a gateway callback.
type Reconciler interface {
	AttachBookingID(ctx context.Context, userID, courseID uuid.UUID, amount int64, bookingID string) (bool, error)
}

// Notifier is told once per settlement that reached the paid state.
type Notifier interface {
	SettlementPaid(ctx context.Context, trx *model.Transaction) error
}

type Quoter interface {
	Quote(ctx context.Context, courseID uuid.UUID, code string) (*checkoutModel.Quote, error)
}

type Config struct {
	MaxAttempts int
}

type settlementService struct {
	repo        repository.Repository
	tx          database.TxManager
	ids         BookingIDGenerator
	courses     courseRepo.Reader
	usage       UsageCounter
	reconciler  Reconciler
	notifier    Notifier
	quoter      Quoter
	maxAttempts int
	now         func() time.Time
}

func NewSettlementService(
	repo repository.Repository,
	tx database.TxManager,
	ids BookingIDGenerator,
	courses courseRepo.Reader,
	usage UsageCounter,
	reconciler Reconciler,
	notifier Notifier,
	quoter Quoter,
	cfg Config,
) Service {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &settlementService{
		repo:        repo,
		tx:          tx,
		ids:         ids,
		courses:     courses,
		usage:       usage,
		reconciler:  reconciler,
		notifier:    notifier,
		quoter:      quoter,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (s *settlementService) Settle(ctx context.Context, req model.SettleRequest) (*model.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.findExisting(ctx, req); err != nil || existing != nil {
		return existing, err
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	startedAt, endedAt := course.AccessWindow(paidAt)

	trx := &model.Transaction{
		ID:             uuid.New(),
		BookingTrxID:   req.BookingID,
		UserID:         req.UserID,
		CourseID:       req.CourseID,
		Subtotal:       req.Subtotal,
		AdminFee:       req.AdminFee,
		DiscountAmount: req.DiscountAmount,
		DiscountID:     req.DiscountID,
		GrandTotal:     req.GrandTotal,
		IsPaid:         req.IsPaid,
		PaymentType:    req.PaymentType,
		StartedAt:      startedAt,
		EndedAt:        endedAt,
	}
	if req.SourceRef != "" {
		ref := req.SourceRef
		trx.SourceRef = &ref
	}

	var existing *model.Transaction
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var insertErr error
		existing, insertErr = s.insertWithFreshID(ctx, trx, req.BookingID != "")
		if insertErr != nil || existing != nil {
			return insertErr
		}
		if trx.IsPaid {
			return s.countDiscountUse(ctx, trx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info("Settlement already recorded", map[string]interface{}{
			"booking_trx_id": existing.BookingTrxID,
			"source_ref":     req.SourceRef,
		})
		return existing, nil
	}

	logger.Info("Settlement recorded", map[string]interface{}{
		"booking_trx_id": trx.BookingTrxID,
		"source_ref":     req.SourceRef,
		"user_id":        trx.UserID.String(),
		"course_id":      trx.CourseID.String(),
		"grand_total":    trx.GrandTotal,
		"is_paid":        trx.IsPaid,
	})

	if trx.IsPaid {
		s.afterPaid(ctx, trx)
	}
	return trx, nil
}

// findExisting implements the idempotent return for a repeated BookingID or SourceRef.
func (s *settlementService) findExisting(ctx context.Context, req model.SettleRequest) (*model.Transaction, error) {
	if req.BookingID != "" {
		t, err := s.repo.FindByBookingID(ctx, req.BookingID)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, model.ErrTransactionNotFound) {
			return nil, err
		}
	}
	if req.SourceRef != "" {
		t, err := s.repo.FindBySourceRef(ctx, req.SourceRef)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, model.ErrTransactionNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// insertWithFreshID inserts trx, regenerating the booking id on collision.
// A conflict on source_ref (or on an explicit booking id) means a concurrent
// caller won; that row is returned instead.
func (s *settlementService) insertWithFreshID(ctx context.Context, trx *model.Transaction, explicitID bool) (*model.Transaction, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !explicitID {
			trx.BookingTrxID = s.ids.Next()
		}

		inserted, err := s.repo.Insert(ctx, trx)
		if err != nil {
			return nil, err
		}
		if inserted {
			return nil, nil
		}

		if trx.SourceRef != nil {
			existing, err := s.repo.FindBySourceRef(ctx, *trx.SourceRef)
			if err == nil {
				return existing, nil
			}
			if !errors.Is(err, model.ErrTransactionNotFound) {
				return nil, err
			}
		}
		if explicitID {
			return s.repo.FindByBookingID(ctx, trx.BookingTrxID)
		}

		logger.Debug("booking id collision, regenerating: " + trx.BookingTrxID)
	}
	return nil, model.ErrIdentifierSpaceExhausted
}

func (s *settlementService) countDiscountUse(ctx context.Context, trx *model.Transaction) error {
	if trx.DiscountID == nil {
		return nil
	}
	ok, err := s.usage.IncrementUsage(ctx, *trx.DiscountID)
	if err != nil {
		return fmt.Errorf("increment discount usage: %w", err)
	}
	if !ok {
		// The buyer already paid; the ledger row stands.
		logger.Warn("Discount limit reached at settlement", map[string]interface{}{
			"booking_trx_id": trx.BookingTrxID,
			"discount_id":    trx.DiscountID.String(),
		})
	}
	return nil
}

// afterPaid runs the post-commit side effects. Failures are logged, never returned:
// the sale is already recorded.
func (s *settlementService) afterPaid(ctx context.Context, trx *model.Transaction) {
	if s.notifier != nil {
		if err := s.notifier.SettlementPaid(ctx, trx); err != nil {
			logger.ErrorWithFields("settlement notification failed", err, map[string]interface{}{
				"booking_trx_id": trx.BookingTrxID,
			})
		}
	}

	if trx.SourceRef == nil && s.reconciler != nil {
		if _, err := s.reconciler.AttachBookingID(ctx, trx.UserID, trx.CourseID, trx.GrandTotal, trx.BookingTrxID); err != nil {
			logger.ErrorWithFields("reconcile after payment failed", err, map[string]interface{}{
				"booking_trx_id": trx.BookingTrxID,
			})
		}
	}
}

func (s *settlementService) MarkPaid(ctx context.Context, bookingID, paymentType string) (*model.Transaction, error) {
	trx, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if trx.IsPaid {
		return trx, nil
	}

	course, err := s.courses.FindByID(ctx, trx.CourseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if paymentType == "" {
		paymentType = trx.PaymentType
	}
	startedAt, endedAt := course.AccessWindow(s.now())

	var transitioned bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var markErr error
		transitioned, markErr = s.repo.MarkPaid(ctx, bookingID, paymentType, startedAt, endedAt)
		if markErr != nil || !transitioned {
			return markErr
		}
		return s.countDiscountUse(ctx, trx)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if transitioned {
		logger.Info("Settlement marked paid", map[string]interface{}{
			"booking_trx_id": bookingID,
			"payment_type":   paymentType,
		})
		s.afterPaid(ctx, updated)
	}
	return updated, nil
}

func (s *settlementService) SetPaid(ctx context.Context, bookingID string, req model.UpdatePaidRequest) (*model.Transaction, error) {
	if req.IsPaid {
		return s.MarkPaid(ctx, bookingID, req.PaymentType)
	}

	trx, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if trx.IsPaid {
		return nil, model.ErrPaidIsFinal
	}
	return trx, nil
}

func (s *settlementService) RecordManualPayment(ctx context.Context, req model.ManualPaymentRequest) (*model.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	quote, err := s.quoter.Quote(ctx, req.CourseID, req.DiscountCode)
	if err != nil {
		return nil, err
	}

	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = model.PaymentTypeManual
	}

	return s.Settle(ctx, model.SettleRequest{
		UserID:         req.UserID,
		CourseID:       req.CourseID,
		Subtotal:       quote.Subtotal,
		AdminFee:       quote.AdminFee,
		DiscountAmount: quote.DiscountAmount,
		DiscountID:     quote.DiscountID(),
		GrandTotal:     quote.GrandTotal,
		IsPaid:         req.Paid(),
		PaymentType:    paymentType,
	})
}

func (s *settlementService) Reconcile(ctx context.Context, bookingID string) (bool, error) {
	trx, err := s.Get(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if !trx.IsPaid {
		return false, model.ErrNotPaid
	}
	return s.reconciler.AttachBookingID(ctx, trx.UserID, trx.CourseID, trx.GrandTotal, trx.BookingTrxID)
}

func (s *settlementService) Get(ctx context.Context, bookingID string) (*model.Transaction, error) {
	trx, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if trx.IsDeleted() {
		return nil, model.ErrTransactionNotFound
	}
	return trx, nil
}

func (s *settlementService) FindBySourceRef(ctx context.Context, sourceRef string) (*model.Transaction, error) {
	return s.repo.FindBySourceRef(ctx, sourceRef)
}

func (s *settlementService) SoftDelete(ctx context.Context, bookingID string) error {
	if err := s.repo.SoftDelete(ctx, bookingID); err != nil {
		return err
	}
	logger.Info("Settlement deleted", map[string]interface{}{"booking_trx_id": bookingID})
	return nil
}
