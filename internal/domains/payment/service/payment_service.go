package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	checkoutModel "course-payments/internal/domains/checkout/model"
	"course-payments/internal/domains/payment/gateway"
	"course-payments/internal/domains/payment/model"
	"course-payments/internal/domains/payment/repository"
	settlementModel "course-payments/internal/domains/settlement/model"
	userRepo "course-payments/internal/domains/user/repository"
	"course-payments/pkg/logger"
)

// =====================================================
// PAYMENT SERVICE INTERFACE
// =====================================================
type Service interface {
	// CreateTripayPayment opens a Tripay closed payment and records its correlation row.
	CreateTripayPayment(ctx context.Context, userID uuid.UUID, req model.CreateTripayPaymentRequest) (*model.CreateTripayPaymentResponse, error)

	// GetByMerchantRef returns the caller's own correlation row.
	GetByMerchantRef(ctx context.Context, userID uuid.UUID, merchantRef string) (*model.PaymentReference, error)

	// ProcessMidtransNotification handles a Snap HTTP notification. A nil error
	// means the gateway should not retry.
	ProcessMidtransNotification(ctx context.Context, rawBody []byte, headers map[string]string) error

	// ProcessTripayCallback handles a Tripay callback; signature and event come from headers.
	ProcessTripayCallback(ctx context.Context, rawBody []byte, headers map[string]string) error

	// RetryFailedWebhooks replays logged notifications that failed transiently.
	RetryFailedWebhooks(ctx context.Context) (int, error)
}

// CheckoutStore is the part of the pending checkout store payments need.
type CheckoutStore interface {
	Quote(ctx context.Context, courseID uuid.UUID, code string) (*checkoutModel.Quote, error)
	FindByOrderID(ctx context.Context, orderID string) (*checkoutModel.PendingCheckout, error)
	Remove(ctx context.Context, orderID string) error
}

// Ledger is the settlement ledger as seen from gateway callbacks.
type Ledger interface {
	Settle(ctx context.Context, req settlementModel.SettleRequest) (*settlementModel.Transaction, error)
	FindBySourceRef(ctx context.Context, sourceRef string) (*settlementModel.Transaction, error)
}

type Config struct {
	MaxWebhookRetries int
	RetryBatchSize    int
	// Location of Midtrans timestamps (WIB).
	Location *time.Location
}

type paymentService struct {
	refs       repository.ReferenceRepository
	webhooks   repository.WebhookRepository
	checkouts  CheckoutStore
	ledger     Ledger
	reconciler *Reconciler
	contacts   userRepo.ContactReader
	snap       gateway.SnapGateway
	tripay     gateway.TripayGateway
	cfg        Config
	now        func() time.Time
}

func NewPaymentService(
	refs repository.ReferenceRepository,
	webhooks repository.WebhookRepository,
	checkouts CheckoutStore,
	ledger Ledger,
	reconciler *Reconciler,
	contacts userRepo.ContactReader,
	snap gateway.SnapGateway,
	tripay gateway.TripayGateway,
	cfg Config,
) Service {
	if cfg.MaxWebhookRetries <= 0 {
		cfg.MaxWebhookRetries = model.DefaultMaxWebhookRetries
	}
	if cfg.RetryBatchSize <= 0 {
		cfg.RetryBatchSize = 100
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &paymentService{
		refs:       refs,
		webhooks:   webhooks,
		checkouts:  checkouts,
		ledger:     ledger,
		reconciler: reconciler,
		contacts:   contacts,
		snap:       snap,
		tripay:     tripay,
		cfg:        cfg,
		now:        time.Now,
	}
}

// =====================================================
// USER OPERATIONS
// =====================================================

func (s *paymentService) CreateTripayPayment(ctx context.Context, userID uuid.UUID, req model.CreateTripayPaymentRequest) (*model.CreateTripayPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	quote, err := s.checkouts.Quote(ctx, req.CourseID, req.DiscountCode)
	if err != nil {
		return nil, err
	}

	merchantRef := NewMerchantRef()
	tripayReq := gateway.TripayRequest{
		Method:      strings.ToUpper(req.Method),
		MerchantRef: merchantRef,
		Amount:      quote.GrandTotal,
		// Tripay rejects negative line items, so the discounted total is one line.
		Items: []gateway.Item{{
			ID:       quote.Course.ID.String(),
			Name:     quote.Course.Title,
			Price:    quote.GrandTotal,
			Quantity: 1,
		}},
	}
	if s.contacts != nil {
		if contact, err := s.contacts.FindContact(ctx, userID); err == nil {
			tripayReq.Customer = gateway.Customer{Name: contact.DisplayName(), Email: contact.Email, Phone: contact.Phone}
		} else {
			logger.Warn("tripay payment without customer details", map[string]interface{}{
				"user_id": userID.String(),
				"error":   err.Error(),
			})
		}
	}

	trx, err := s.tripay.CreateTransaction(ctx, tripayReq)
	if err != nil {
		return nil, fmt.Errorf("create tripay transaction: %w", err)
	}

	gatewayRef := trx.Reference
	ref := &model.PaymentReference{
		ID:               uuid.New(),
		MerchantRef:      merchantRef,
		Channel:          model.ChannelTripay,
		GatewayReference: &gatewayRef,
		UserID:           userID,
		CourseID:         quote.Course.ID,
		DiscountID:       quote.DiscountID(),
		Subtotal:         quote.Subtotal,
		AdminFee:         quote.AdminFee,
		DiscountAmount:   quote.DiscountAmount,
		Amount:           quote.GrandTotal,
		CheckoutURL:      trx.CheckoutURL,
	}
	if err := s.refs.CreatePending(ctx, ref); err != nil {
		return nil, err
	}

	logger.Info("Tripay payment created", map[string]interface{}{
		"merchant_ref": merchantRef,
		"reference":    trx.Reference,
		"user_id":      userID.String(),
		"amount":       ref.Amount,
	})

	return &model.CreateTripayPaymentResponse{
		MerchantRef:    merchantRef,
		Reference:      trx.Reference,
		CheckoutURL:    trx.CheckoutURL,
		Subtotal:       ref.Subtotal,
		AdminFee:       ref.AdminFee,
		DiscountAmount: ref.DiscountAmount,
		Amount:         ref.Amount,
		ExpiresAt:      time.Unix(trx.ExpiredTime, 0),
	}, nil
}

func (s *paymentService) GetByMerchantRef(ctx context.Context, userID uuid.UUID, merchantRef string) (*model.PaymentReference, error) {
	ref, err := s.refs.FindByMerchantRef(ctx, merchantRef)
	if err != nil {
		return nil, err
	}
	if ref.UserID != userID {
		return nil, model.ErrForbidden
	}
	return ref, nil
}

// =====================================================
// WEBHOOK PROCESSING
// =====================================================

func (s *paymentService) ProcessMidtransNotification(ctx context.Context, rawBody []byte, headers map[string]string) error {
	var n model.MidtransNotification
	parseErr := json.Unmarshal(rawBody, &n)

	log := model.NewWebhookLog(model.ChannelMidtrans, n.OrderID, n.TransactionStatus, headers, rawBody)
	if err := s.webhooks.Create(ctx, log); err != nil {
		return err
	}

	if parseErr == nil {
		parseErr = n.Validate()
	}
	if parseErr != nil {
		s.markInvalid(ctx, log, parseErr.Error())
		return model.NewInvalidPayloadError(parseErr)
	}
	if !s.snap.VerifyNotification(n) {
		s.markInvalid(ctx, log, "signature mismatch")
		logger.Warn("Midtrans notification with invalid signature", map[string]interface{}{
			"order_id": n.OrderID,
		})
		return model.NewInvalidSignatureError(model.ChannelMidtrans)
	}

	return s.finish(ctx, log, s.handleMidtrans(ctx, n))
}

func (s *paymentService) ProcessTripayCallback(ctx context.Context, rawBody []byte, headers map[string]string) error {
	var cb model.TripayCallback
	parseErr := json.Unmarshal(rawBody, &cb)
	event := headers[model.HeaderTripayEvent]

	log := model.NewWebhookLog(model.ChannelTripay, cb.MerchantRef, event, headers, rawBody)
	if err := s.webhooks.Create(ctx, log); err != nil {
		return err
	}

	if !s.tripay.VerifyCallback(rawBody, headers[model.HeaderTripaySignature]) {
		s.markInvalid(ctx, log, "signature mismatch")
		logger.Warn("Tripay callback with invalid signature", map[string]interface{}{
			"merchant_ref": cb.MerchantRef,
		})
		return model.NewInvalidSignatureError(model.ChannelTripay)
	}
	if event != model.TripayCallbackEventPaymentStatus {
		s.markInvalid(ctx, log, "unsupported event: "+event)
		return model.NewInvalidPayloadError(fmt.Errorf("unsupported callback event %q", event))
	}
	if parseErr == nil && cb.MerchantRef == "" {
		parseErr = errors.New("merchant_ref is required")
	}
	if parseErr != nil {
		s.markInvalid(ctx, log, parseErr.Error())
		return model.NewInvalidPayloadError(parseErr)
	}

	return s.finish(ctx, log, s.handleTripay(ctx, cb))
}

func (s *paymentService) RetryFailedWebhooks(ctx context.Context) (int, error) {
	logs, err := s.webhooks.ListRetryable(ctx, s.cfg.MaxWebhookRetries, s.cfg.RetryBatchSize)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, log := range logs {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
		if !log.CanRetry(s.cfg.MaxWebhookRetries) {
			continue
		}
		if err := s.webhooks.IncrementRetry(ctx, log.ID); err != nil {
			return resolved, err
		}

		// The signature was verified when the row was first received.
		if err := s.finish(ctx, log, s.replay(ctx, log)); err == nil {
			resolved++
		}
	}

	if len(logs) > 0 {
		logger.Info("Webhook retry finished", map[string]interface{}{
			"candidates": len(logs),
			"resolved":   resolved,
		})
	}
	return resolved, nil
}

func (s *paymentService) replay(ctx context.Context, log *model.WebhookLog) error {
	switch log.Gateway {
	case model.ChannelMidtrans:
		var n model.MidtransNotification
		if err := json.Unmarshal(log.Body, &n); err != nil {
			return model.NewInvalidPayloadError(err)
		}
		return s.handleMidtrans(ctx, n)
	case model.ChannelTripay:
		var cb model.TripayCallback
		if err := json.Unmarshal(log.Body, &cb); err != nil {
			return model.NewInvalidPayloadError(err)
		}
		return s.handleTripay(ctx, cb)
	default:
		return model.NewInvalidPayloadError(fmt.Errorf("unknown gateway %q", log.Gateway))
	}
}

// handleMidtrans settles a PAID Snap order from its pending checkout.
func (s *paymentService) handleMidtrans(ctx context.Context, n model.MidtransNotification) error {
	status := model.MapMidtransStatus(n.TransactionStatus, n.FraudStatus)
	if status != model.StatusPaid {
		logger.Info("Midtrans notification acknowledged", map[string]interface{}{
			"order_id":           n.OrderID,
			"transaction_status": n.TransactionStatus,
			"status":             string(status),
		})
		return nil
	}

	pending, err := s.checkouts.FindByOrderID(ctx, n.OrderID)
	if errors.Is(err, checkoutModel.ErrCheckoutNotFound) {
		return s.acknowledgeWithoutCheckout(ctx, n.OrderID)
	}
	if err != nil {
		return err
	}

	amount, err := n.Amount()
	if err != nil {
		return model.NewInvalidPayloadError(err)
	}
	if amount != pending.GrandTotal {
		logger.Warn("Midtrans gross amount mismatch", map[string]interface{}{
			"order_id": n.OrderID,
			"expected": pending.GrandTotal,
			"received": amount,
		})
		return model.ErrAmountMismatch
	}

	trx, err := s.ledger.Settle(ctx, settlementModel.SettleRequest{
		SourceRef:      n.OrderID,
		UserID:         pending.UserID,
		CourseID:       pending.CourseID,
		Subtotal:       pending.Subtotal,
		AdminFee:       pending.AdminFee,
		DiscountAmount: pending.DiscountAmount,
		DiscountID:     pending.DiscountID,
		GrandTotal:     pending.GrandTotal,
		IsPaid:         true,
		PaymentType:    n.PaymentType,
		PaidAt:         s.midtransPaidAt(n),
	})
	if err != nil {
		return err
	}

	if err := s.checkouts.Remove(ctx, n.OrderID); err != nil {
		// the expiry sweep removes it later
		logger.ErrorWithFields("failed to remove settled checkout", err, map[string]interface{}{
			"order_id": n.OrderID,
		})
	}

	logger.Info("Midtrans payment settled", map[string]interface{}{
		"order_id":       n.OrderID,
		"booking_trx_id": trx.BookingTrxID,
	})
	return nil
}

// acknowledgeWithoutCheckout covers replays after the checkout was removed.
// An order_id that never settled is rejected as an unknown reference.
func (s *paymentService) acknowledgeWithoutCheckout(ctx context.Context, orderID string) error {
	trx, err := s.ledger.FindBySourceRef(ctx, orderID)
	switch {
	case err == nil:
		logger.Info("Midtrans notification replay ignored", map[string]interface{}{
			"order_id":       orderID,
			"booking_trx_id": trx.BookingTrxID,
		})
		return nil
	case errors.Is(err, settlementModel.ErrTransactionNotFound):
		logger.Warn("Midtrans notification for unknown order", map[string]interface{}{
			"order_id": orderID,
		})
		return fmt.Errorf("order_id %s: %w", orderID, model.ErrUnknownReference)
	default:
		return err
	}
}

// handleTripay applies the callback to the correlation row and, on a full
// payment, settles and links it.
func (s *paymentService) handleTripay(ctx context.Context, cb model.TripayCallback) error {
	applied, ref, err := s.refs.ApplyCallback(ctx, cb.MerchantRef, cb.ToUpdate())
	if errors.Is(err, model.ErrUnknownReference) {
		logger.Warn("Tripay callback for unknown merchant_ref", map[string]interface{}{
			"merchant_ref": cb.MerchantRef,
		})
		return fmt.Errorf("merchant_ref %s: %w", cb.MerchantRef, model.ErrUnknownReference)
	}
	if err != nil {
		return err
	}
	if !applied {
		logger.Info("Stale Tripay callback ignored", map[string]interface{}{
			"merchant_ref": cb.MerchantRef,
			"status":       cb.Status,
			"current":      string(ref.Status),
		})
	}

	if ref.Status != model.StatusPaid || ref.IsLinked() {
		return nil
	}
	if !ref.IsFullyPaid() {
		logger.Warn("Tripay paid amount mismatch", map[string]interface{}{
			"merchant_ref": ref.MerchantRef,
			"expected":     ref.Amount,
			"received":     ref.PaidAmount,
		})
		return model.ErrAmountMismatch
	}

	paymentType := cb.PaymentMethodCode
	if paymentType == "" && ref.PaymentMethod != nil {
		paymentType = *ref.PaymentMethod
	}
	paidAt := s.now()
	if cb.PaidAt != nil {
		paidAt = time.Unix(*cb.PaidAt, 0)
	}

	trx, err := s.ledger.Settle(ctx, settlementModel.SettleRequest{
		SourceRef:      ref.MerchantRef,
		UserID:         ref.UserID,
		CourseID:       ref.CourseID,
		Subtotal:       ref.Subtotal,
		AdminFee:       ref.AdminFee,
		DiscountAmount: ref.DiscountAmount,
		DiscountID:     ref.DiscountID,
		GrandTotal:     ref.Amount,
		IsPaid:         true,
		PaymentType:    paymentType,
		PaidAt:         paidAt,
	})
	if err != nil {
		return err
	}

	if _, err := s.reconciler.LinkBookingID(ctx, ref.MerchantRef, trx.BookingTrxID); err != nil {
		return err
	}

	logger.Info("Tripay payment settled", map[string]interface{}{
		"merchant_ref":   ref.MerchantRef,
		"booking_trx_id": trx.BookingTrxID,
	})
	return nil
}

// finish records the outcome of processing on the webhook log. Permanent
// failures are acknowledged so the gateway stops retrying.
func (s *paymentService) finish(ctx context.Context, log *model.WebhookLog, procErr error) error {
	if procErr == nil {
		if err := s.webhooks.MarkProcessed(ctx, log.ID); err != nil {
			logger.Error("failed to mark webhook processed", err)
		}
		return nil
	}

	if isPermanent(procErr) {
		s.markInvalid(ctx, log, procErr.Error())
		return nil
	}

	if err := s.webhooks.MarkFailed(ctx, log.ID, procErr.Error()); err != nil {
		logger.Error("failed to mark webhook failed", err)
	}
	logger.ErrorWithFields("webhook processing failed", procErr, map[string]interface{}{
		"gateway":      log.Gateway,
		"merchant_ref": log.MerchantRef,
	})
	return procErr
}

func (s *paymentService) markInvalid(ctx context.Context, log *model.WebhookLog, reason string) {
	if err := s.webhooks.MarkInvalid(ctx, log.ID, reason); err != nil {
		logger.Error("failed to mark webhook invalid", err)
	}
}

func (s *paymentService) midtransPaidAt(n model.MidtransNotification) time.Time {
	for _, v := range []string{n.SettlementTime, n.TransactionTime} {
		if v == "" {
			continue
		}
		if t, err := time.ParseInLocation(time.DateTime, v, s.cfg.Location); err == nil {
			return t
		}
	}
	return s.now()
}

func isPermanent(err error) bool {
	return errors.Is(err, model.ErrAmountMismatch) ||
		errors.Is(err, model.ErrUnknownReference) ||
		errors.Is(err, model.ErrInvalidPayload) ||
		errors.Is(err, settlementModel.ErrInvalidSettlement) ||
		errors.Is(err, settlementModel.ErrGrandTotalMismatch)
}

// NewMerchantRef returns a Tripay merchant_ref.
func NewMerchantRef() string {
	return "TP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
