package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-payments/internal/domains/settlement/model"
	"course-payments/pkg/database"
)

type Repository interface {
	// Insert returns false without error when a unique key (booking_trx_id or
	// source_ref) already exists.
	Insert(ctx context.Context, trx *model.Transaction) (bool, error)
	FindByBookingID(ctx context.Context, bookingID string) (*model.Transaction, error)
	// FindBySourceRef includes soft-deleted rows: they still own the ref.
	FindBySourceRef(ctx context.Context, sourceRef string) (*model.Transaction, error)
	// MarkPaid flips is_paid false -> true and reports whether this call did it.
	MarkPaid(ctx context.Context, bookingID, paymentType string, startedAt time.Time, endedAt *time.Time) (bool, error)
	SoftDelete(ctx context.Context, bookingID string) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const selectColumns = `
	id, booking_trx_id, source_ref, user_id, course_id, subtotal, admin_fee,
	discount_amount, discount_id, grand_total, is_paid, payment_type,
	started_at, ended_at, created_at, updated_at, deleted_at
`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var t model.Transaction
	err := row.Scan(
		&t.ID, &t.BookingTrxID, &t.SourceRef, &t.UserID, &t.CourseID, &t.Subtotal, &t.AdminFee,
		&t.DiscountAmount, &t.DiscountID, &t.GrandTotal, &t.IsPaid, &t.PaymentType,
		&t.StartedAt, &t.EndedAt, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresRepository) Insert(ctx context.Context, trx *model.Transaction) (bool, error) {
	query := `
		INSERT INTO transactions (
			id, booking_trx_id, source_ref, user_id, course_id, subtotal, admin_fee,
			discount_amount, discount_id, grand_total, is_paid, payment_type,
			started_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT DO NOTHING
		RETURNING created_at, updated_at
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		trx.ID, trx.BookingTrxID, trx.SourceRef, trx.UserID, trx.CourseID, trx.Subtotal, trx.AdminFee,
		trx.DiscountAmount, trx.DiscountID, trx.GrandTotal, trx.IsPaid, trx.PaymentType,
		trx.StartedAt, trx.EndedAt,
	).Scan(&trx.CreatedAt, &trx.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert settlement: %w", err)
	}
	return true, nil
}

func (r *postgresRepository) FindByBookingID(ctx context.Context, bookingID string) (*model.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE booking_trx_id = $1`

	t, err := scanTransaction(database.Conn(ctx, r.pool).QueryRow(ctx, query, bookingID))
	if err != nil && !errors.Is(err, model.ErrTransactionNotFound) {
		return nil, fmt.Errorf("failed to find settlement: %w", err)
	}
	return t, err
}

func (r *postgresRepository) FindBySourceRef(ctx context.Context, sourceRef string) (*model.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE source_ref = $1`

	t, err := scanTransaction(database.Conn(ctx, r.pool).QueryRow(ctx, query, sourceRef))
	if err != nil && !errors.Is(err, model.ErrTransactionNotFound) {
		return nil, fmt.Errorf("failed to find settlement by source ref: %w", err)
	}
	return t, err
}

func (r *postgresRepository) MarkPaid(ctx context.Context, bookingID, paymentType string, startedAt time.Time, endedAt *time.Time) (bool, error) {
	query := `
		UPDATE transactions
		SET is_paid = TRUE,
			payment_type = $2,
			started_at = $3,
			ended_at = $4,
			updated_at = NOW()
		WHERE booking_trx_id = $1
			AND is_paid = FALSE
			AND deleted_at IS NULL
	`

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, bookingID, paymentType, startedAt, endedAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark settlement paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *postgresRepository) SoftDelete(ctx context.Context, bookingID string) error {
	query := `
		UPDATE transactions
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE booking_trx_id = $1 AND deleted_at IS NULL
	`

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTransactionNotFound
	}
	return nil
}
