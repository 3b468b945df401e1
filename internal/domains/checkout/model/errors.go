package model

import "errors"

var (
	ErrCheckoutNotFound  = errors.New("checkout not found")
	ErrCourseUnavailable = errors.New("course is not available for purchase")
	ErrNothingToPay      = errors.New("checkout total must be positive")
	ErrNotOwner          = errors.New("checkout belongs to another user")
)

const (
	ErrCodeCheckoutNotFound  = "CHK001"
	ErrCodeCourseUnavailable = "CHK002"
	ErrCodeNothingToPay      = "CHK003"
	ErrCodeGatewayFailed     = "CHK004"
)
