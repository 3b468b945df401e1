package repository

import (
	"context"

	"github.com/google/uuid"

	"course-payments/internal/domains/discount/model"
)

// Repository is the storage contract of the discount engine.
type Repository interface {
	Create(ctx context.Context, d *model.Discount) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Discount, error)
	// FindByCode matches case-insensitively and does not filter on eligibility.
	FindByCode(ctx context.Context, code string) (*model.Discount, error)
	// IncrementUsage adds exactly one use if, and only if, the limit allows it.
	// The limit check and the increment are one statement.
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
