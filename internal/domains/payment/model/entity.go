package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// =====================================================
// GATEWAY CORRELATION ENTITY
// =====================================================

// PaymentReference correlates a gateway-side payment (merchant_ref) with the
// settlement it eventually produced. BookingTrxID is written at most once.
type PaymentReference struct {
	ID               uuid.UUID  `json:"id"`
	MerchantRef      string     `json:"merchant_ref"`
	Channel          string     `json:"channel"`
	GatewayReference *string    `json:"gateway_reference,omitempty"`
	UserID           uuid.UUID  `json:"user_id"`
	CourseID         uuid.UUID  `json:"course_id"`
	DiscountID       *uuid.UUID `json:"discount_id,omitempty"`
	Subtotal         int64      `json:"subtotal"`
	AdminFee         int64      `json:"admin_fee"`
	DiscountAmount   int64      `json:"discount_amount"`
	Amount           int64      `json:"amount"`
	Status           Status     `json:"status"`
	PaidAmount       *int64     `json:"paid_amount,omitempty"`
	PaymentMethod    *string    `json:"payment_method,omitempty"`
	CheckoutURL      string     `json:"checkout_url"`
	BookingTrxID     *string    `json:"booking_trx_id,omitempty"`
	CallbackAt       *time.Time `json:"callback_received_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsFullyPaid is true when the gateway reported PAID for exactly the amount asked.
func (r *PaymentReference) IsFullyPaid() bool {
	return r.Status == StatusPaid && r.PaidAmount != nil && *r.PaidAmount == r.Amount
}

func (r *PaymentReference) IsLinked() bool {
	return r.BookingTrxID != nil && *r.BookingTrxID != ""
}

// CallbackUpdate is what a gateway callback is allowed to change on a reference.
type CallbackUpdate struct {
	Status           Status
	GatewayReference string
	PaidAmount       *int64
	PaymentMethod    string
}

// =====================================================
// PAYMENT WEBHOOK LOG ENTITY
// =====================================================
type WebhookLog struct {
	ID             uuid.UUID         `json:"id"`
	Gateway        string            `json:"gateway"`
	MerchantRef    string            `json:"merchant_ref"`
	Event          string            `json:"event"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           json.RawMessage   `json:"body"`
	SignatureValid bool              `json:"signature_valid"`
	Status         string            `json:"status"`
	ErrorMessage   *string           `json:"error_message,omitempty"`
	RetryCount     int               `json:"retry_count"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func NewWebhookLog(gateway, merchantRef, event string, headers map[string]string, body []byte) *WebhookLog {
	if !json.Valid(body) {
		// keep the audit row; JSONB cannot hold arbitrary bytes
		quoted, _ := json.Marshal(string(body))
		body = quoted
	}
	return &WebhookLog{
		ID:          uuid.New(),
		Gateway:     gateway,
		MerchantRef: merchantRef,
		Event:       event,
		Headers:     headers,
		Body:        body,
		Status:      WebhookStatusReceived,
		CreatedAt:   time.Now(),
	}
}

// CanRetry reports whether the retry job may replay this log.
func (w *WebhookLog) CanRetry(maxRetries int) bool {
	return w.Status == WebhookStatusFailed && w.SignatureValid && w.RetryCount < maxRetries
}
