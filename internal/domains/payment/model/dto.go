package model

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"course-payments/internal/shared/utils"
)

// =====================================================
// MIDTRANS
// =====================================================

// MidtransNotification is the HTTP notification body Midtrans posts.
type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	SettlementTime    string `json:"settlement_time"`
}

// Amount parses gross_amount ("250000.00") into whole rupiah.
func (n MidtransNotification) Amount() (int64, error) {
	d, err := decimal.NewFromString(n.GrossAmount)
	if err != nil {
		return 0, fmt.Errorf("invalid gross_amount %q: %w", n.GrossAmount, err)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("fractional gross_amount %q", n.GrossAmount)
	}
	return d.IntPart(), nil
}

func (n MidtransNotification) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.OrderID, validation.Required),
		validation.Field(&n.TransactionStatus, validation.Required),
		validation.Field(&n.StatusCode, validation.Required),
		validation.Field(&n.GrossAmount, validation.Required),
		validation.Field(&n.SignatureKey, validation.Required),
	)
}

// =====================================================
// TRIPAY
// =====================================================

// TripayCallback is the callback body for X-Callback-Event: payment_status.
type TripayCallback struct {
	Reference         string `json:"reference"`
	MerchantRef       string `json:"merchant_ref"`
	PaymentMethod     string `json:"payment_method"`
	PaymentMethodCode string `json:"payment_method_code"`
	TotalAmount       int64  `json:"total_amount"`
	FeeMerchant       int64  `json:"fee_merchant"`
	FeeCustomer       int64  `json:"fee_customer"`
	TotalFee          int64  `json:"total_fee"`
	AmountReceived    int64  `json:"amount_received"`
	IsClosedPayment   int    `json:"is_closed_payment"`
	Status            string `json:"status"`
	PaidAt            *int64 `json:"paid_at"`
	Note              string `json:"note"`
}

// ToUpdate builds the correlation update. PaidAmount is the amount the
// merchant asked for, so customer-borne fees are excluded.
func (c TripayCallback) ToUpdate() CallbackUpdate {
	upd := CallbackUpdate{
		Status:           MapTripayStatus(c.Status),
		GatewayReference: c.Reference,
		PaymentMethod:    c.PaymentMethodCode,
	}
	if upd.Status == StatusPaid {
		paid := c.TotalAmount - c.FeeCustomer
		upd.PaidAmount = &paid
	}
	return upd
}

// =====================================================
// USER REQUESTS
// =====================================================

type CreateTripayPaymentRequest struct {
	CourseID     uuid.UUID `json:"course_id"`
	DiscountCode string    `json:"discount_code"`
	Method       string    `json:"method"` // Tripay channel code, e.g. BRIVA, QRIS
}

func (r CreateTripayPaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CourseID, validation.By(utils.NotNilUUID)),
		validation.Field(&r.Method, validation.Required, validation.Length(2, 32)),
		validation.Field(&r.DiscountCode, validation.Length(0, 64)),
	)
}

type CreateTripayPaymentResponse struct {
	MerchantRef    string    `json:"merchant_ref"`
	Reference      string    `json:"reference"`
	CheckoutURL    string    `json:"checkout_url"`
	Subtotal       int64     `json:"subtotal"`
	AdminFee       int64     `json:"admin_fee"`
	DiscountAmount int64     `json:"discount_amount"`
	Amount         int64     `json:"amount"`
	ExpiresAt      time.Time `json:"expires_at"`
}
