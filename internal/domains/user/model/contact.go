package model

import (
	"errors"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// Contact is what the payment core needs to address a buyer.
type Contact struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Phone    string    `json:"phone,omitempty"`
}

// DisplayName falls back to the email when the profile has no name.
func (c *Contact) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	return c.Email
}
