package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-payments/internal/domains/payment/model"
	"course-payments/pkg/database"
)

// =====================================================
// GATEWAY CORRELATION REPOSITORY
// =====================================================
type ReferenceRepository interface {
	// CreatePending always inserts with status UNPAID.
	CreatePending(ctx context.Context, ref *model.PaymentReference) error
	FindByMerchantRef(ctx context.Context, merchantRef string) (*model.PaymentReference, error)

	// ApplyCallback writes a gateway callback onto the row in one conditional
	// UPDATE. A non-PAID status never overwrites PAID; such a callback returns
	// applied=false with the current row.
	ApplyCallback(ctx context.Context, merchantRef string, upd model.CallbackUpdate) (bool, *model.PaymentReference, error)

	// LinkBookingID sets booking_trx_id on the row only if it is still empty.
	LinkBookingID(ctx context.Context, merchantRef, bookingID string) (bool, error)

	// AttachBookingToLatestMatch links bookingID onto the most recently updated
	// PAID, unlinked row for the same buyer, course and amount.
	AttachBookingToLatestMatch(ctx context.Context, userID, courseID uuid.UUID, amount int64, bookingID string) (bool, error)
}

type referenceRepository struct {
	pool *pgxpool.Pool
}

func NewReferenceRepository(pool *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{pool: pool}
}

const referenceColumns = `
	id, merchant_ref, channel, gateway_reference, user_id, course_id, discount_id,
	subtotal, admin_fee, discount_amount, amount, status, paid_amount, payment_method,
	checkout_url, booking_trx_id, callback_received_at, created_at, updated_at`

func (r *referenceRepository) CreatePending(ctx context.Context, ref *model.PaymentReference) error {
	query := `
		INSERT INTO payment_references (
			id, merchant_ref, channel, gateway_reference, user_id, course_id,
			discount_id, subtotal, admin_fee, discount_amount, amount, status, checkout_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	ref.Status = model.StatusUnpaid
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		ref.ID, ref.MerchantRef, ref.Channel, ref.GatewayReference, ref.UserID, ref.CourseID,
		ref.DiscountID, ref.Subtotal, ref.AdminFee, ref.DiscountAmount, ref.Amount, ref.Status, ref.CheckoutURL,
	).Scan(&ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment reference: %w", err)
	}
	return nil
}

func (r *referenceRepository) FindByMerchantRef(ctx context.Context, merchantRef string) (*model.PaymentReference, error) {
	query := `SELECT ` + referenceColumns + ` FROM payment_references WHERE merchant_ref = $1`

	ref, err := scanReference(database.Conn(ctx, r.pool).QueryRow(ctx, query, merchantRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUnknownReference
		}
		return nil, fmt.Errorf("failed to get payment reference: %w", err)
	}
	return ref, nil
}

func (r *referenceRepository) ApplyCallback(ctx context.Context, merchantRef string, upd model.CallbackUpdate) (bool, *model.PaymentReference, error) {
	query := `
		UPDATE payment_references
		SET status = $2,
			gateway_reference = COALESCE(NULLIF($3, ''), gateway_reference),
			paid_amount = COALESCE($4, paid_amount),
			payment_method = COALESCE(NULLIF($5, ''), payment_method),
			callback_received_at = NOW(),
			updated_at = NOW()
		WHERE merchant_ref = $1
		AND (status <> 'PAID' OR $2 = 'PAID')
		RETURNING ` + referenceColumns

	ref, err := scanReference(database.Conn(ctx, r.pool).QueryRow(ctx, query,
		merchantRef, upd.Status, upd.GatewayReference, upd.PaidAmount, upd.PaymentMethod,
	))
	if err == nil {
		return true, ref, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, nil, fmt.Errorf("failed to apply callback: %w", err)
	}

	// Nothing updated: either the ref is unknown or the row is already PAID.
	current, err := r.FindByMerchantRef(ctx, merchantRef)
	if err != nil {
		return false, nil, err
	}
	return false, current, nil
}

func (r *referenceRepository) LinkBookingID(ctx context.Context, merchantRef, bookingID string) (bool, error) {
	query := `
		UPDATE payment_references
		SET booking_trx_id = $2, updated_at = NOW()
		WHERE merchant_ref = $1
		AND booking_trx_id IS NULL
	`

	result, err := database.Conn(ctx, r.pool).Exec(ctx, query, merchantRef, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to link booking id: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *referenceRepository) AttachBookingToLatestMatch(ctx context.Context, userID, courseID uuid.UUID, amount int64, bookingID string) (bool, error) {
	query := `
		UPDATE payment_references
		SET booking_trx_id = $4, updated_at = NOW()
		WHERE id = (
			SELECT id FROM payment_references
			WHERE user_id = $1
			AND course_id = $2
			AND status = 'PAID'
			AND paid_amount = $3
			AND booking_trx_id IS NULL
			ORDER BY updated_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		AND booking_trx_id IS NULL
	`

	result, err := database.Conn(ctx, r.pool).Exec(ctx, query, userID, courseID, amount, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to attach booking id: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func scanReference(row pgx.Row) (*model.PaymentReference, error) {
	var ref model.PaymentReference
	err := row.Scan(
		&ref.ID, &ref.MerchantRef, &ref.Channel, &ref.GatewayReference, &ref.UserID, &ref.CourseID,
		&ref.DiscountID, &ref.Subtotal, &ref.AdminFee, &ref.DiscountAmount, &ref.Amount, &ref.Status,
		&ref.PaidAmount, &ref.PaymentMethod, &ref.CheckoutURL, &ref.BookingTrxID, &ref.CallbackAt,
		&ref.CreatedAt, &ref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
