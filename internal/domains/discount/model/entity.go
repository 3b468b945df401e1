package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
)

func (k Kind) IsValid() bool {
	return k == KindPercentage || k == KindFixed
}

// Discount is a promotional code. UsedCount is only ever changed by the
// conditional increment in the repository.
type Discount struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Kind            Kind            `json:"kind"`
	Value           decimal.Decimal `json:"value"`
	MinimumAmount   *int64          `json:"minimum_amount,omitempty"`
	MaximumDiscount *int64          `json:"maximum_discount,omitempty"` // percentage only
	UsageLimit      *int            `json:"usage_limit,omitempty"`
	UsedCount       int             `json:"used_count"`
	IsActive        bool            `json:"is_active"`
	StartsAt        time.Time       `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	IsStackable     bool            `json:"is_stackable"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasRemainingUses is true when there is no limit or the limit is not reached.
func (d *Discount) HasRemainingUses() bool {
	return d.UsageLimit == nil || d.UsedCount < *d.UsageLimit
}

// InWindow reports whether now falls in [StartsAt, EndsAt).
func (d *Discount) InWindow(now time.Time) bool {
	return !now.Before(d.StartsAt) && now.Before(d.EndsAt)
}

// Snapshot freezes the discount facts at checkout time so later audit does
// not depend on the policy row still existing unchanged.
type Snapshot struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Code   string          `json:"code"`
	Kind   Kind            `json:"kind"`
	Value  decimal.Decimal `json:"value"`
	Amount int64           `json:"amount"`
}

// Application is a resolved, eligible discount and the amount it takes off.
type Application struct {
	Discount *Discount
	Amount   int64
}

func (a *Application) Snapshot() *Snapshot {
	if a == nil || a.Discount == nil {
		return nil
	}
	return &Snapshot{
		ID:     a.Discount.ID,
		Name:   a.Discount.Name,
		Code:   a.Discount.Code,
		Kind:   a.Discount.Kind,
		Value:  a.Discount.Value,
		Amount: a.Amount,
	}
}

// Breakdown explains how a discount amount was reached.
type Breakdown struct {
	Subtotal      int64  `json:"subtotal"`
	Kind          Kind   `json:"kind"`
	Eligible      bool   `json:"eligible"`
	RawDiscount   int64  `json:"raw_discount"`
	FinalDiscount int64  `json:"final_discount"`
	Capped        bool   `json:"capped"`
	CapReason     string `json:"cap_reason,omitempty"`
}
