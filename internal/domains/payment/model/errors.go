package model

import (
	"errors"
	"fmt"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	// ErrUnknownReference means a callback named a merchant_ref we never issued.
	ErrUnknownReference   = errors.New("unknown payment reference")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrInvalidPayload     = errors.New("invalid webhook payload")
	ErrAmountMismatch     = errors.New("paid amount does not match expected amount")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrForbidden          = errors.New("payment belongs to another user")
)

// =====================================================
// CUSTOM PAYMENT ERROR
// =====================================================

type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func NewPaymentError(code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =====================================================
// ERROR CONSTRUCTORS
// =====================================================

func NewReferenceNotFoundError(merchantRef string) *PaymentError {
	return NewPaymentError(
		ErrCodeReferenceNotFound,
		fmt.Sprintf("Payment reference not found: %s", merchantRef),
		ErrUnknownReference,
	)
}

func NewInvalidSignatureError(gateway string) *PaymentError {
	return NewPaymentError(
		ErrCodeInvalidSignature,
		fmt.Sprintf("Invalid %s signature", gateway),
		ErrInvalidSignature,
	)
}

func NewInvalidPayloadError(err error) *PaymentError {
	return NewPaymentError(
		ErrCodeInvalidPayload,
		"Malformed webhook payload",
		errors.Join(ErrInvalidPayload, err),
	)
}

func NewGatewayError(gateway string, err error) *PaymentError {
	return NewPaymentError(
		ErrCodeGatewayUnavailable,
		fmt.Sprintf("%s request failed", gateway),
		errors.Join(ErrGatewayUnavailable, err),
	)
}
