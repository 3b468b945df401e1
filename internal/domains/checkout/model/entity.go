package model

import (
	"time"

	"github.com/google/uuid"

	courseModel "course-payments/internal/domains/course/model"
	discountModel "course-payments/internal/domains/discount/model"
)

// CheckoutTTL is how long a Snap token and its pending row stay valid.
const CheckoutTTL = 2 * time.Hour

// PendingCheckout is the staged state of a Snap checkout between token
// issuance and the gateway's settlement notification. OrderID is the
// Midtrans order_id.
type PendingCheckout struct {
	ID               uuid.UUID               `json:"id"`
	OrderID          string                  `json:"order_id"`
	UserID           uuid.UUID               `json:"user_id"`
	CourseID         uuid.UUID               `json:"course_id"`
	Subtotal         int64                   `json:"subtotal"`
	AdminFee         int64                   `json:"admin_fee"`
	DiscountAmount   int64                   `json:"discount_amount"`
	DiscountID       *uuid.UUID              `json:"discount_id,omitempty"`
	GrandTotal       int64                   `json:"grand_total"`
	SnapToken        string                  `json:"snap_token"`
	RedirectURL      string                  `json:"redirect_url"`
	DiscountSnapshot *discountModel.Snapshot `json:"discount_snapshot,omitempty"`
	ExpiresAt        time.Time               `json:"expires_at"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// IsExpired reports whether now has reached expires_at.
func (p *PendingCheckout) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Quote is the money computation shared by every purchase path.
type Quote struct {
	Course         *courseModel.Course        `json:"-"`
	Discount       *discountModel.Application `json:"-"`
	Subtotal       int64                      `json:"subtotal"`
	AdminFee       int64                      `json:"admin_fee"`
	DiscountAmount int64                      `json:"discount_amount"`
	GrandTotal     int64                      `json:"grand_total"`
}

func NewQuote(course *courseModel.Course, adminFee int64, applied *discountModel.Application) *Quote {
	q := &Quote{
		Course:   course,
		Discount: applied,
		Subtotal: course.Price,
		AdminFee: adminFee,
	}
	if applied != nil {
		q.DiscountAmount = applied.Amount
	}
	q.GrandTotal = q.Subtotal + q.AdminFee - q.DiscountAmount
	return q
}

func (q *Quote) DiscountID() *uuid.UUID {
	if q.Discount == nil || q.Discount.Discount == nil {
		return nil
	}
	id := q.Discount.Discount.ID
	return &id
}
