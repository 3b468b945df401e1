package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentTypeManual = "manual"
)

// Transaction is the authoritative sales record. IsPaid never goes back to false.
type Transaction struct {
	ID             uuid.UUID  `json:"id"`
	BookingTrxID   string     `json:"booking_trx_id"`
	SourceRef      *string    `json:"source_ref,omitempty"`
	UserID         uuid.UUID  `json:"user_id"`
	CourseID       uuid.UUID  `json:"course_id"`
	Subtotal       int64      `json:"subtotal"`
	AdminFee       int64      `json:"admin_fee"`
	DiscountAmount int64      `json:"discount_amount"`
	DiscountID     *uuid.UUID `json:"discount_id,omitempty"`
	GrandTotal     int64      `json:"grand_total"`
	IsPaid         bool       `json:"is_paid"`
	PaymentType    string     `json:"payment_type"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

func (t *Transaction) IsDeleted() bool {
	return t.DeletedAt != nil
}

// SettleRequest describes one confirmed (or manually recorded) purchase.
// BookingID is optional; when empty one is generated. SourceRef is the
// gateway-facing id for gateway-driven settlements and empty otherwise.
type SettleRequest struct {
	BookingID      string
	SourceRef      string
	UserID         uuid.UUID
	CourseID       uuid.UUID
	Subtotal       int64
	AdminFee       int64
	DiscountAmount int64
	DiscountID     *uuid.UUID
	GrandTotal     int64
	IsPaid         bool
	PaymentType    string
	PaidAt         time.Time
}

// Validate enforces the money invariant before anything touches the ledger.
func (r SettleRequest) Validate() error {
	if r.UserID == uuid.Nil || r.CourseID == uuid.Nil {
		return ErrInvalidSettlement
	}
	if r.Subtotal < 0 || r.AdminFee < 0 || r.DiscountAmount < 0 || r.DiscountAmount > r.Subtotal {
		return ErrInvalidSettlement
	}
	if r.GrandTotal != r.Subtotal+r.AdminFee-r.DiscountAmount {
		return ErrGrandTotalMismatch
	}
	return nil
}
