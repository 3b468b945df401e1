package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"course-payments/internal/shared/utils"
)

type OpenCheckoutRequest struct {
	CourseID     uuid.UUID `json:"course_id"`
	DiscountCode string    `json:"discount_code"`
}

func (r OpenCheckoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CourseID, validation.By(utils.NotNilUUID)),
		validation.Field(&r.DiscountCode, validation.Length(0, 64)),
	)
}

type OpenCheckoutResponse struct {
	OrderID        string    `json:"order_id"`
	SnapToken      string    `json:"snap_token"`
	RedirectURL    string    `json:"redirect_url"`
	Subtotal       int64     `json:"subtotal"`
	AdminFee       int64     `json:"admin_fee"`
	DiscountAmount int64     `json:"discount_amount"`
	GrandTotal     int64     `json:"grand_total"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func ToOpenCheckoutResponse(p *PendingCheckout) *OpenCheckoutResponse {
	return &OpenCheckoutResponse{
		OrderID:        p.OrderID,
		SnapToken:      p.SnapToken,
		RedirectURL:    p.RedirectURL,
		Subtotal:       p.Subtotal,
		AdminFee:       p.AdminFee,
		DiscountAmount: p.DiscountAmount,
		GrandTotal:     p.GrandTotal,
		ExpiresAt:      p.ExpiresAt,
	}
}
