package gateway

import (
	"context"
	"time"

	"course-payments/internal/domains/payment/model"
)

// =====================================================
// GATEWAY INTERFACES
// =====================================================

// SnapGateway is the Midtrans Snap integration used by checkout.
type SnapGateway interface {
	// CreateTransaction requests a Snap token for an order_id.
	CreateTransaction(ctx context.Context, req SnapRequest) (*SnapResponse, error)

	// VerifyNotification checks signature_key on an HTTP notification.
	VerifyNotification(n model.MidtransNotification) bool
}

// TripayGateway is the Tripay closed-payment integration.
type TripayGateway interface {
	CreateTransaction(ctx context.Context, req TripayRequest) (*TripayTransaction, error)

	// VerifyCallback checks X-Callback-Signature against the raw body.
	VerifyCallback(rawBody []byte, signature string) bool
}

// =====================================================
// COMMON REQUEST/RESPONSE TYPES
// =====================================================

type Customer struct {
	Name  string
	Email string
	Phone string
}

type Item struct {
	ID       string
	Name     string
	Price    int64
	Quantity int
}

type SnapRequest struct {
	OrderID     string
	GrossAmount int64
	Items       []Item
	Customer    Customer
	Expiry      time.Duration
}

type SnapResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type TripayRequest struct {
	Method      string
	MerchantRef string
	Amount      int64
	Items       []Item
	Customer    Customer
	ExpiresAt   time.Time
}

type TripayTransaction struct {
	Reference   string `json:"reference"`
	MerchantRef string `json:"merchant_ref"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	ExpiredTime int64  `json:"expired_time"`
}
