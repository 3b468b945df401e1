package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"course-payments/internal/shared/utils"
)

// ManualPaymentRequest records a purchase made outside any gateway.
type ManualPaymentRequest struct {
	UserID       uuid.UUID `json:"user_id"`
	CourseID     uuid.UUID `json:"course_id"`
	DiscountCode string    `json:"discount_code"`
	PaymentType  string    `json:"payment_type"`
	IsPaid       *bool     `json:"is_paid"` // defaults to true
}

func (r ManualPaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.By(utils.NotNilUUID)),
		validation.Field(&r.CourseID, validation.By(utils.NotNilUUID)),
		validation.Field(&r.DiscountCode, validation.Length(0, 64)),
		validation.Field(&r.PaymentType, validation.Length(0, 50)),
	)
}

func (r ManualPaymentRequest) Paid() bool {
	return r.IsPaid == nil || *r.IsPaid
}

type UpdatePaidRequest struct {
	IsPaid      bool   `json:"is_paid"`
	PaymentType string `json:"payment_type"`
}

type ReconcileResponse struct {
	BookingTrxID string `json:"booking_trx_id"`
	Linked       bool   `json:"linked"`
}
