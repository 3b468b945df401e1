package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// SiteSettings is the single site-wide configuration row (id = 1).
type SiteSettings struct {
	AdminFee     int64     `json:"admin_fee"`
	SupportEmail string    `json:"support_email"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UpdateSettingsRequest struct {
	AdminFee     int64  `json:"admin_fee"`
	SupportEmail string `json:"support_email"`
}

func (r UpdateSettingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AdminFee, validation.Min(int64(0))),
		validation.Field(&r.SupportEmail, is.EmailFormat),
	)
}
