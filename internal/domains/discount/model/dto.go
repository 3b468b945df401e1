package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// ValidateDiscountRequest previews a code against an amount.
type ValidateDiscountRequest struct {
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
}

func (r ValidateDiscountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Amount, validation.Required, validation.Min(int64(1))),
	)
}

type ValidateDiscountResponse struct {
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Discount  int64      `json:"discount"`
	NetAmount int64      `json:"net_amount"`
	Breakdown *Breakdown `json:"breakdown"`
}

// -------------------------------------------------------------------
// ADMIN REQUESTS
// -------------------------------------------------------------------

type CreateDiscountRequest struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Kind            Kind            `json:"kind"`
	Value           decimal.Decimal `json:"value"`
	MinimumAmount   *int64          `json:"minimum_amount"`
	MaximumDiscount *int64          `json:"maximum_discount"`
	UsageLimit      *int            `json:"usage_limit"`
	StartsAt        time.Time       `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	IsStackable     bool            `json:"is_stackable"`
}

func (r CreateDiscountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Kind, validation.Required, validation.In(KindPercentage, KindFixed)),
		validation.Field(&r.Value, validation.By(func(interface{}) error {
			if !r.Value.IsPositive() {
				return validation.NewError("validation_value_positive", "must be greater than 0")
			}
			if r.Kind == KindPercentage && r.Value.GreaterThan(decimal.NewFromInt(100)) {
				return validation.NewError("validation_value_percent", "must be at most 100 for percentage discounts")
			}
			return nil
		})),
		validation.Field(&r.MinimumAmount, validation.NilOrNotEmpty, validation.Min(int64(1))),
		validation.Field(&r.MaximumDiscount,
			validation.NilOrNotEmpty,
			validation.Min(int64(1)),
			validation.When(r.Kind == KindFixed, validation.Nil.Error("only allowed for percentage discounts")),
		),
		validation.Field(&r.UsageLimit, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&r.StartsAt, validation.Required),
		validation.Field(&r.EndsAt, validation.Required, validation.Min(r.StartsAt.Add(time.Second)).Error("must be after starts_at")),
	)
}

// NormalizeCode stores codes upper-cased and trimmed.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r CreateDiscountRequest) ToEntity() *Discount {
	return &Discount{
		Code:            NormalizeCode(r.Code),
		Name:            strings.TrimSpace(r.Name),
		Kind:            r.Kind,
		Value:           r.Value,
		MinimumAmount:   r.MinimumAmount,
		MaximumDiscount: r.MaximumDiscount,
		UsageLimit:      r.UsageLimit,
		IsActive:        true,
		StartsAt:        r.StartsAt,
		EndsAt:          r.EndsAt,
		IsStackable:     r.IsStackable,
	}
}
