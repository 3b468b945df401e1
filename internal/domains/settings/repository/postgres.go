package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-payments/internal/domains/settings/model"
	"course-payments/pkg/database"
)

type Repository interface {
	Get(ctx context.Context) (*model.SiteSettings, error)
	Save(ctx context.Context, s *model.SiteSettings) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// Get returns zero-value settings when the row has not been created yet.
func (r *postgresRepository) Get(ctx context.Context) (*model.SiteSettings, error) {
	query := `
		SELECT admin_fee, support_email, updated_at
		FROM site_settings
		WHERE id = 1
	`

	var s model.SiteSettings
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query).Scan(
		&s.AdminFee, &s.SupportEmail, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.SiteSettings{}, nil
		}
		return nil, fmt.Errorf("failed to load site settings: %w", err)
	}
	return &s, nil
}

func (r *postgresRepository) Save(ctx context.Context, s *model.SiteSettings) error {
	query := `
		INSERT INTO site_settings (id, admin_fee, support_email, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			admin_fee = EXCLUDED.admin_fee,
			support_email = EXCLUDED.support_email,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		s.AdminFee, s.SupportEmail,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save site settings: %w", err)
	}
	return nil
}
