package service

import (
	"time"

	"github.com/shopspring/decimal"

	"course-payments/internal/domains/discount/model"
)

var hundred = decimal.NewFromInt(100)

// Calculator is the pure part of the discount engine: eligibility and amount.
// Amounts are integer rupiah. Percentages round half up exactly once.
type Calculator struct {
	now func() time.Time
}

func NewCalculator() *Calculator {
	return &Calculator{now: time.Now}
}

// NewCalculatorWithClock is used by tests and by callers that need a fixed evaluation time.
func NewCalculatorWithClock(now func() time.Time) *Calculator {
	return &Calculator{now: now}
}

// IsEligible requires every condition: active, inside the window, uses left
// and the minimum amount met. There is no partial eligibility.
func (c *Calculator) IsEligible(d *model.Discount, amount int64) bool {
	return c.ineligibleReason(d, amount) == ""
}

func (c *Calculator) ineligibleReason(d *model.Discount, amount int64) string {
	switch {
	case d == nil:
		return "not_found"
	case !d.IsActive:
		return "inactive"
	case !d.InWindow(c.now()):
		return "outside_validity_window"
	case !d.HasRemainingUses():
		return "usage_limit_reached"
	case d.MinimumAmount != nil && amount < *d.MinimumAmount:
		return "minimum_amount_not_met"
	}
	return ""
}

// Compute returns the discount for amount, 0 when ineligible.
// Fixed discounts never exceed amount; percentage discounts never exceed MaximumDiscount.
func (c *Calculator) Compute(d *model.Discount, amount int64) int64 {
	return c.CalculateWithBreakdown(d, amount).FinalDiscount
}

func (c *Calculator) CalculateWithBreakdown(d *model.Discount, amount int64) *model.Breakdown {
	b := &model.Breakdown{Subtotal: amount}
	if d != nil {
		b.Kind = d.Kind
	}
	if amount <= 0 || !c.IsEligible(d, amount) {
		return b
	}
	b.Eligible = true

	switch d.Kind {
	case model.KindPercentage:
		// amount × value / 100, rounded half up once
		b.RawDiscount = decimal.NewFromInt(amount).Mul(d.Value).Div(hundred).Round(0).IntPart()
		b.FinalDiscount = b.RawDiscount
		if d.MaximumDiscount != nil && b.FinalDiscount > *d.MaximumDiscount {
			b.FinalDiscount = *d.MaximumDiscount
			b.Capped = true
			b.CapReason = "maximum_discount"
		}

	case model.KindFixed:
		b.RawDiscount = d.Value.Round(0).IntPart()
		b.FinalDiscount = b.RawDiscount

	default:
		b.Eligible = false
		return b
	}

	if b.FinalDiscount > amount {
		b.FinalDiscount = amount
		b.Capped = true
		b.CapReason = "order_amount"
	}
	if b.FinalDiscount < 0 {
		b.FinalDiscount = 0
	}

	return b
}
