package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-payments/internal/domains/discount/model"
	"course-payments/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const discountColumns = `
	id, code, name, kind, value, minimum_amount, maximum_discount,
	usage_limit, used_count, is_active, starts_at, ends_at, is_stackable,
	created_at, updated_at`

func scanDiscount(row pgx.Row) (*model.Discount, error) {
	var d model.Discount
	err := row.Scan(
		&d.ID, &d.Code, &d.Name, &d.Kind, &d.Value, &d.MinimumAmount, &d.MaximumDiscount,
		&d.UsageLimit, &d.UsedCount, &d.IsActive, &d.StartsAt, &d.EndsAt, &d.IsStackable,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *postgresRepository) Create(ctx context.Context, d *model.Discount) error {
	query := `
		INSERT INTO discounts (
			code, name, kind, value, minimum_amount, maximum_discount,
			usage_limit, is_active, starts_at, ends_at, is_stackable
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, used_count, created_at, updated_at
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		d.Code, d.Name, d.Kind, d.Value, d.MinimumAmount, d.MaximumDiscount,
		d.UsageLimit, d.IsActive, d.StartsAt, d.EndsAt, d.IsStackable,
	).Scan(&d.ID, &d.UsedCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return model.ErrCodeExists
		}
		return fmt.Errorf("failed to create discount: %w", err)
	}

	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	query := `SELECT` + discountColumns + ` FROM discounts WHERE id = $1`

	d, err := scanDiscount(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to find discount: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) FindByCode(ctx context.Context, code string) (*model.Discount, error) {
	query := `SELECT` + discountColumns + ` FROM discounts WHERE UPPER(code) = UPPER($1)`

	d, err := scanDiscount(database.Conn(ctx, r.pool).QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to find discount by code: %w", err)
	}
	return d, nil
}

// IncrementUsage: two concurrent redemptions of the last use serialize on the
// row lock; the second re-evaluates the WHERE clause and affects 0 rows.
func (r *postgresRepository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE discounts
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1
		  AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	result, err := database.Conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to increment discount usage: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// Deactivate is the only way a discount is retired; rows stay for settlement references.
func (r *postgresRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE discounts SET is_active = false, updated_at = NOW() WHERE id = $1`

	result, err := database.Conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate discount: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrDiscountNotFound
	}
	return nil
}
