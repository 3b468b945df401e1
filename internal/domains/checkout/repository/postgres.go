package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-payments/internal/domains/checkout/model"
	discountModel "course-payments/internal/domains/discount/model"
	"course-payments/pkg/database"
)

type Repository interface {
	Create(ctx context.Context, p *model.PendingCheckout) error
	// FindByOrderID does not filter expired rows; callers decide.
	FindByOrderID(ctx context.Context, orderID string) (*model.PendingCheckout, error)
	DeleteByOrderID(ctx context.Context, orderID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, p *model.PendingCheckout) error {
	query := `
		INSERT INTO payment_temps (
			id, order_id, user_id, course_id, subtotal, admin_fee,
			discount_amount, discount_id, grand_total, snap_token,
			redirect_url, discount_snapshot, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	var snapshot []byte
	if p.DiscountSnapshot != nil {
		raw, err := json.Marshal(p.DiscountSnapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal discount snapshot: %w", err)
		}
		snapshot = raw
	}

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		p.ID, p.OrderID, p.UserID, p.CourseID, p.Subtotal, p.AdminFee,
		p.DiscountAmount, p.DiscountID, p.GrandTotal, p.SnapToken,
		p.RedirectURL, snapshot, p.ExpiresAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pending checkout: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindByOrderID(ctx context.Context, orderID string) (*model.PendingCheckout, error) {
	query := `
		SELECT id, order_id, user_id, course_id, subtotal, admin_fee,
			discount_amount, discount_id, grand_total, snap_token,
			redirect_url, discount_snapshot, expires_at, created_at, updated_at
		FROM payment_temps
		WHERE order_id = $1
	`

	var (
		p        model.PendingCheckout
		snapshot []byte
	)
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.CourseID, &p.Subtotal, &p.AdminFee,
		&p.DiscountAmount, &p.DiscountID, &p.GrandTotal, &p.SnapToken,
		&p.RedirectURL, &snapshot, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCheckoutNotFound
		}
		return nil, fmt.Errorf("failed to find pending checkout: %w", err)
	}

	if len(snapshot) > 0 {
		var s discountModel.Snapshot
		if err := json.Unmarshal(snapshot, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal discount snapshot: %w", err)
		}
		p.DiscountSnapshot = &s
	}

	return &p, nil
}

func (r *postgresRepository) DeleteByOrderID(ctx context.Context, orderID string) (bool, error) {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM payment_temps WHERE order_id = $1`, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to delete pending checkout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM payment_temps WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired checkouts: %w", err)
	}
	return tag.RowsAffected(), nil
}
