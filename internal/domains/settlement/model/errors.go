package model

import "errors"

var (
	ErrTransactionNotFound      = errors.New("settlement not found")
	ErrPaidIsFinal              = errors.New("a paid settlement cannot be marked unpaid")
	ErrInvalidSettlement        = errors.New("invalid settlement amounts or parties")
	ErrGrandTotalMismatch       = errors.New("grand_total must equal subtotal + admin_fee - discount_amount")
	ErrIdentifierSpaceExhausted = errors.New("could not allocate a unique booking identifier")
	ErrNotPaid                  = errors.New("settlement is not paid")
)

const (
	ErrCodeTransactionNotFound = "STL001"
	ErrCodePaidIsFinal         = "STL002"
	ErrCodeInvalidSettlement   = "STL003"
	ErrCodeNotPaid             = "STL004"
)
