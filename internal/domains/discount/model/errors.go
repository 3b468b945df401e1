package model

import (
	"errors"
	"net/http"
)

var (
	ErrDiscountNotFound = errors.New("discount not found")
	ErrCodeExists       = errors.New("discount code already exists")
)

type ErrorCode string

const (
	ErrCodeDiscountInvalid  ErrorCode = "DISCOUNT_INVALID"
	ErrCodeDiscountNotFound ErrorCode = "DISCOUNT_NOT_FOUND"
	ErrCodeDuplicateCode    ErrorCode = "VAL_DUPLICATE_CODE"
	ErrCodeValidationFailed ErrorCode = "VAL_INVALID_INPUT"
	ErrCodeInternalError    ErrorCode = "SYS_INTERNAL_ERROR"
)

// AppError is returned to the caller as-is (code + message).
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches on Code so wrapped copies with different details still match the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// ErrDiscountInvalid covers every reason a code cannot be applied:
// unknown, inactive, outside its window, exhausted or below the minimum.
// It is a user-facing outcome, not a fault.
var ErrDiscountInvalid = &AppError{
	Code:       ErrCodeDiscountInvalid,
	Message:    "Discount code is not valid for this purchase",
	HTTPStatus: http.StatusUnprocessableEntity,
}

// NewDiscountInvalid attaches the reason to ErrDiscountInvalid for the response body.
func NewDiscountInvalid(reason string) *AppError {
	return &AppError{
		Code:       ErrCodeDiscountInvalid,
		Message:    ErrDiscountInvalid.Message,
		Details:    map[string]interface{}{"reason": reason},
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}
