package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-payments/internal/domains/user/model"
	"course-payments/pkg/cache"
	"course-payments/pkg/database"
)

const contactCacheTTL = 30 * time.Minute

// ContactReader reads buyer contact details from the users table owned by the auth service.
type ContactReader interface {
	FindContact(ctx context.Context, id uuid.UUID) (*model.Contact, error)
}

type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewContactReader(pool *pgxpool.Pool, c cache.Cache) ContactReader {
	return &postgresRepository{pool: pool, cache: c}
}

func (r *postgresRepository) FindContact(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	cacheKey := fmt.Sprintf("user:contact:%s", id.String())

	var contact model.Contact
	if r.cache != nil {
		found, err := r.cache.Get(ctx, cacheKey, &contact)
		if err == nil && found {
			return &contact, nil
		}
	}

	query := `
		SELECT id, email, COALESCE(full_name, ''), COALESCE(phone, '')
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&contact.ID, &contact.Email, &contact.FullName, &contact.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user contact: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, cacheKey, &contact, contactCacheTTL)
	}

	return &contact, nil
}
