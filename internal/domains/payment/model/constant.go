package model

// =====================================================
// PAYMENT CHANNELS
// =====================================================
const (
	ChannelMidtrans = "midtrans"
	ChannelTripay   = "tripay"
	ChannelManual   = "manual"
)

// =====================================================
// CORRELATION STATUS
// =====================================================

// Status is the internal status of a gateway correlation row.
// PAID is terminal for status-downgrade purposes.
type Status string

const (
	StatusUnpaid   Status = "UNPAID"
	StatusPaid     Status = "PAID"
	StatusExpired  Status = "EXPIRED"
	StatusCanceled Status = "CANCELED"
	StatusFailed   Status = "FAILED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusExpired, StatusCanceled, StatusFailed:
		return true
	}
	return false
}

// =====================================================
// WEBHOOK LOG STATUS
// =====================================================
const (
	WebhookStatusReceived  = "received"
	WebhookStatusProcessed = "processed"
	WebhookStatusFailed    = "failed"
	WebhookStatusInvalid   = "invalid"
)

const (
	// TripayCallbackEventPaymentStatus is the only X-Callback-Event we act on.
	TripayCallbackEventPaymentStatus = "payment_status"

	HeaderTripaySignature = "X-Callback-Signature"
	HeaderTripayEvent     = "X-Callback-Event"

	DefaultMaxWebhookRetries = 5
)

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	ErrCodeReferenceNotFound  = "PAY001"
	ErrCodeInvalidSignature   = "PAY002"
	ErrCodeGatewayUnavailable = "PAY003"
	ErrCodeInvalidPayload     = "PAY004"
	ErrCodeAmountMismatch     = "PAY005"
	ErrCodeForbidden          = "PAY006"
	ErrCodeCheckoutFailed     = "PAY007"
)
