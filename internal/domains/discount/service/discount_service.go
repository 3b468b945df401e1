package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"course-payments/internal/domains/discount/model"
	"course-payments/internal/domains/discount/repository"
	"course-payments/pkg/logger"
)

// =====================================================
// DISCOUNT SERVICE INTERFACE
// =====================================================
type Service interface {
	// Resolve looks up code and applies it to amount. Any reason the code
	// cannot be used yields model.ErrDiscountInvalid.
	Resolve(ctx context.Context, code string, amount int64) (*model.Application, error)

	// Preview is Resolve with an explanation, for the validate endpoint.
	Preview(ctx context.Context, req model.ValidateDiscountRequest) (*model.ValidateDiscountResponse, error)

	// IncrementUsage counts one redemption. false means the limit was already reached.
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)

	Create(ctx context.Context, req model.CreateDiscountRequest) (*model.Discount, error)
	GetByCode(ctx context.Context, code string) (*model.Discount, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type discountService struct {
	repo repository.Repository
	calc *Calculator
}

func NewDiscountService(repo repository.Repository, calc *Calculator) Service {
	return &discountService{repo: repo, calc: calc}
}

func (s *discountService) Resolve(ctx context.Context, code string, amount int64) (*model.Application, error) {
	code = model.NormalizeCode(code)
	if code == "" {
		return nil, model.NewDiscountInvalid("empty_code")
	}

	d, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrDiscountNotFound) {
			return nil, model.NewDiscountInvalid("not_found")
		}
		return nil, fmt.Errorf("resolve discount: %w", err)
	}

	if reason := s.calc.ineligibleReason(d, amount); reason != "" {
		logger.Debug("discount rejected: " + reason)
		return nil, model.NewDiscountInvalid(reason)
	}

	return &model.Application{
		Discount: d,
		Amount:   s.calc.Compute(d, amount),
	}, nil
}

func (s *discountService) Preview(ctx context.Context, req model.ValidateDiscountRequest) (*model.ValidateDiscountResponse, error) {
	applied, err := s.Resolve(ctx, req.Code, req.Amount)
	if err != nil {
		return nil, err
	}

	return &model.ValidateDiscountResponse{
		Code:      applied.Discount.Code,
		Name:      applied.Discount.Name,
		Discount:  applied.Amount,
		NetAmount: req.Amount - applied.Amount,
		Breakdown: s.calc.CalculateWithBreakdown(applied.Discount, req.Amount),
	}, nil
}

func (s *discountService) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.repo.IncrementUsage(ctx, id)
	if err != nil {
		return false, err
	}

	if !ok {
		logger.Warn("Discount usage limit reached, increment refused", map[string]interface{}{
			"discount_id": id.String(),
		})
	}
	return ok, nil
}

func (s *discountService) Create(ctx context.Context, req model.CreateDiscountRequest) (*model.Discount, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d := req.ToEntity()
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	logger.Info("Discount created", map[string]interface{}{
		"discount_id": d.ID.String(),
		"code":        d.Code,
		"kind":        string(d.Kind),
	})
	return d, nil
}

// GetByCode returns the policy whatever its state, for admins.
func (s *discountService) GetByCode(ctx context.Context, code string) (*model.Discount, error) {
	return s.repo.FindByCode(ctx, strings.TrimSpace(code))
}

func (s *discountService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	logger.Info("Discount deactivated", map[string]interface{}{"discount_id": id.String()})
	return nil
}

// IsDiscountInvalid reports whether err means "the code cannot be used".
func IsDiscountInvalid(err error) bool {
	return errors.Is(err, model.ErrDiscountInvalid)
}

