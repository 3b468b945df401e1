package service

import (
	"context"

	"github.com/google/uuid"

	"course-payments/internal/domains/payment/repository"
	"course-payments/pkg/logger"
)

// Reconciler links settlements back onto gateway correlation rows.
type Reconciler struct {
	refs repository.ReferenceRepository
}

func NewReconciler(refs repository.ReferenceRepository) *Reconciler {
	return &Reconciler{refs: refs}
}

// AttachBookingID is the soft join used when a booking was made outside a
// gateway callback. When several PAID rows match, the most recently updated
// one wins. A miss is not an error.
func (r *Reconciler) AttachBookingID(ctx context.Context, userID, courseID uuid.UUID, amount int64, bookingID string) (bool, error) {
	linked, err := r.refs.AttachBookingToLatestMatch(ctx, userID, courseID, amount, bookingID)
	if err != nil {
		return false, err
	}
	if !linked {
		logger.Info("Reconciliation miss", map[string]interface{}{
			"user_id":        userID.String(),
			"course_id":      courseID.String(),
			"amount":         amount,
			"booking_trx_id": bookingID,
		})
		return false, nil
	}

	logger.Info("Booking attached to payment reference", map[string]interface{}{
		"booking_trx_id": bookingID,
		"user_id":        userID.String(),
	})
	return true, nil
}

// LinkBookingID is the direct path: the callback already names the row.
func (r *Reconciler) LinkBookingID(ctx context.Context, merchantRef, bookingID string) (bool, error) {
	linked, err := r.refs.LinkBookingID(ctx, merchantRef, bookingID)
	if err != nil {
		return false, err
	}
	if !linked {
		logger.Debug("payment reference already linked: " + merchantRef)
	}
	return linked, nil
}
