package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-payments/internal/domains/course/model"
	"course-payments/pkg/database"
)

// Reader is the narrow catalog interface used by checkout and settlement.
type Reader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
}

type postgresReader struct {
	pool *pgxpool.Pool
}

func NewPostgresReader(pool *pgxpool.Pool) Reader {
	return &postgresReader{pool: pool}
}

func (r *postgresReader) FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	query := `
		SELECT id, title, price, mentor_id, access_days, is_active
		FROM courses
		WHERE id = $1 AND deleted_at IS NULL
	`

	var c model.Course
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Price, &c.MentorID, &c.AccessDays, &c.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to find course: %w", err)
	}

	return &c, nil
}
