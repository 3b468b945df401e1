package model

import "strings"

// MapMidtransStatus converts transaction_status (+ fraud_status for card
// captures) into the internal status.
func MapMidtransStatus(transactionStatus, fraudStatus string) Status {
	switch strings.ToLower(transactionStatus) {
	case "settlement":
		return StatusPaid
	case "capture":
		if strings.EqualFold(fraudStatus, "challenge") {
			return StatusFailed
		}
		return StatusPaid
	case "pending", "authorize":
		return StatusUnpaid
	case "expire":
		return StatusExpired
	case "cancel", "refund", "partial_refund":
		return StatusCanceled
	case "deny", "failure":
		return StatusFailed
	default:
		return StatusUnpaid
	}
}

// MapTripayStatus converts a Tripay callback status. REFUND maps to CANCELED;
// there is no refund workflow.
func MapTripayStatus(status string) Status {
	switch strings.ToUpper(status) {
	case "PAID":
		return StatusPaid
	case "EXPIRED":
		return StatusExpired
	case "FAILED":
		return StatusFailed
	case "REFUND":
		return StatusCanceled
	default:
		return StatusUnpaid
	}
}
