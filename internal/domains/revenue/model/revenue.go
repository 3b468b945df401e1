package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"course-payments/internal/shared/utils"
)

var (
	// ErrScopeForbidden is returned for roles that may not read revenue.
	ErrScopeForbidden   = errors.New("role may not read revenue")
	ErrInvalidDateRange = errors.New("date range end is before its start")
)

const (
	ErrCodeScopeForbidden  = "REV001"
	ErrCodeInvalidCriteria = "REV002"
)

// Actor is the authenticated caller a report is scoped to.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// Criteria are the optional report filters. From and To are calendar dates;
// their Location decides where the day starts.
type Criteria struct {
	PartyID  *uuid.UUID // course mentor
	CourseID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

// Summary is computed in SQL over the filtered ledger.
type Summary struct {
	Gross     int64 `json:"gross"`
	Fees      int64 `json:"fees"`
	Discounts int64 `json:"discounts"`
	Net       int64 `json:"net"`
	Count     int64 `json:"count"`
}

// Row is one paid settlement in a drill-down listing.
type Row struct {
	BookingTrxID   string    `json:"booking_trx_id"`
	UserID         uuid.UUID `json:"user_id"`
	CourseID       uuid.UUID `json:"course_id"`
	CourseTitle    string    `json:"course_title"`
	Subtotal       int64     `json:"subtotal"`
	AdminFee       int64     `json:"admin_fee"`
	DiscountAmount int64     `json:"discount_amount"`
	GrandTotal     int64     `json:"grand_total"`
	PaymentType    string    `json:"payment_type"`
	StartedAt      time.Time `json:"started_at"`
}

// =====================================================
// REQUESTS
// =====================================================

// ReportRequest is bound from the query string.
type ReportRequest struct {
	PartyID  string `form:"party_id"`
	CourseID string `form:"course_id"`
	From     string `form:"from"` // YYYY-MM-DD
	To       string `form:"to"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

func (r ReportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PartyID, validation.By(optionalUUID)),
		validation.Field(&r.CourseID, validation.By(optionalUUID)),
		validation.Field(&r.From, validation.Date(time.DateOnly)),
		validation.Field(&r.To, validation.Date(time.DateOnly)),
		validation.Field(&r.Page, validation.Min(0)),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(100)),
	)
}

// Criteria parses the request; dates are read in loc.
func (r ReportRequest) Criteria(loc *time.Location) (Criteria, error) {
	var c Criteria
	var err error
	if c.PartyID, err = utils.ParseOptionalUUID(r.PartyID); err != nil {
		return c, err
	}
	if c.CourseID, err = utils.ParseOptionalUUID(r.CourseID); err != nil {
		return c, err
	}
	if r.From != "" {
		t, err := time.ParseInLocation(time.DateOnly, r.From, loc)
		if err != nil {
			return c, err
		}
		c.From = &t
	}
	if r.To != "" {
		t, err := time.ParseInLocation(time.DateOnly, r.To, loc)
		if err != nil {
			return c, err
		}
		c.To = &t
	}
	if c.From != nil && c.To != nil && c.To.Before(*c.From) {
		return c, ErrInvalidDateRange
	}
	return c, nil
}

// Pagination returns page and limit with defaults applied.
func (r ReportRequest) Pagination() (page, limit int) {
	return utils.NormalizePage(r.Page, r.Limit, 100)
}

func optionalUUID(value interface{}) error {
	s, _ := value.(string)
	if _, err := utils.ParseOptionalUUID(s); err != nil {
		return errors.New("must be a valid UUID")
	}
	return nil
}

// =====================================================
// RESPONSES
// =====================================================

type ExportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Rows      int       `json:"rows"`
}
