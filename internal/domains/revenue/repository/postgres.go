package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"course-payments/internal/domains/revenue/model"
	"course-payments/pkg/logger"
)

type Repository interface {
	// Summarize aggregates in one statement; rows are never loaded.
	Summarize(ctx context.Context, f *Filter) (*model.Summary, error)
	List(ctx context.Context, f *Filter, limit, offset int) ([]model.Row, int64, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Summarize(ctx context.Context, f *Filter) (*model.Summary, error) {
	query := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(t.subtotal + t.admin_fee), 0)::BIGINT AS gross,
			COALESCE(SUM(t.admin_fee), 0)::BIGINT AS fees,
			COALESCE(SUM(t.discount_amount), 0)::BIGINT AS discounts,
			COALESCE(SUM(t.subtotal - t.discount_amount), 0)::BIGINT AS net,
			COUNT(*) AS count
		FROM transactions t
		JOIN courses c ON c.id = t.course_id
		%s
	`, f.Where())

	var s model.Summary
	err := r.pool.QueryRow(ctx, query, f.Args()...).Scan(&s.Gross, &s.Fees, &s.Discounts, &s.Net, &s.Count)
	if err != nil {
		logger.Error("Summarize: aggregate query failed", err)
		return nil, fmt.Errorf("failed to summarize revenue: %w", err)
	}
	return &s, nil
}

func (r *postgresRepository) List(ctx context.Context, f *Filter, limit, offset int) ([]model.Row, int64, error) {
	args := f.Args()

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM transactions t
		JOIN courses c ON c.id = t.course_id
		%s
	`, f.Where())

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		logger.Error("List: count query failed", err)
		return nil, 0, fmt.Errorf("failed to count revenue rows: %w", err)
	}

	argIndex := len(args) + 1
	listQuery := fmt.Sprintf(`
		SELECT t.booking_trx_id, t.user_id, t.course_id, c.title,
			t.subtotal, t.admin_fee, t.discount_amount, t.grand_total,
			t.payment_type, t.started_at
		FROM transactions t
		JOIN courses c ON c.id = t.course_id
		%s
		ORDER BY t.started_at DESC, t.booking_trx_id
		LIMIT $%d OFFSET $%d
	`, f.Where(), argIndex, argIndex+1)

	rows, err := r.pool.Query(ctx, listQuery, append(args, limit, offset)...)
	if err != nil {
		logger.Error("List: query failed", err)
		return nil, 0, fmt.Errorf("failed to list revenue rows: %w", err)
	}
	defer rows.Close()

	result := make([]model.Row, 0, limit)
	for rows.Next() {
		var row model.Row
		err := rows.Scan(
			&row.BookingTrxID, &row.UserID, &row.CourseID, &row.CourseTitle,
			&row.Subtotal, &row.AdminFee, &row.DiscountAmount, &row.GrandTotal,
			&row.PaymentType, &row.StartedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan revenue row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate revenue rows: %w", err)
	}
	return result, total, nil
}
