package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-payments/internal/domains/discount/model"
)

// memoryRepo mirrors the conditional UPDATE of the postgres repository:
// the limit check and the increment happen under one lock.
type memoryRepo struct {
	mu        sync.Mutex
	discounts map[uuid.UUID]*model.Discount
}

func newMemoryRepo(ds ...*model.Discount) *memoryRepo {
	r := &memoryRepo{discounts: map[uuid.UUID]*model.Discount{}}
	for _, d := range ds {
		r.discounts[d.ID] = d
	}
	return r
}

func (r *memoryRepo) Create(_ context.Context, d *model.Discount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.discounts {
		if existing.Code == d.Code {
			return model.ErrCodeExists
		}
	}
	d.ID = uuid.New()
	r.discounts[d.ID] = d
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.discounts[id]
	if !ok {
		return nil, model.ErrDiscountNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memoryRepo) FindByCode(_ context.Context, code string) (*model.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.discounts {
		if model.NormalizeCode(d.Code) == model.NormalizeCode(code) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, model.ErrDiscountNotFound
}

// IncrementUsage mirrors the UPDATE guard in repository.IncrementUsage:
// (usage_limit IS NULL OR used_count < usage_limit).
func (r *memoryRepo) IncrementUsage(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.discounts[id]
	if !ok || (d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit) {
		return false, nil
	}
	d.UsedCount++
	return true, nil
}

func (r *memoryRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.discounts[id]
	if !ok {
		return model.ErrDiscountNotFound
	}
	d.IsActive = false
	return nil
}

func newTestService(ds ...*model.Discount) (Service, *memoryRepo) {
	repo := newMemoryRepo(ds...)
	return NewDiscountService(repo, NewCalculatorWithClock(func() time.Time { return fixedNow })), repo
}

func TestResolve_AppliesEligibleCode(t *testing.T) {
	d := activeDiscount(model.KindPercentage, 10)
	d.Code = "SAVE10"
	d.MinimumAmount = int64Ptr(100000)
	d.MaximumDiscount = int64Ptr(20000)
	svc, _ := newTestService(d)

	applied, err := svc.Resolve(context.Background(), " save10 ", 250000)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), applied.Amount)

	snap := applied.Snapshot()
	assert.Equal(t, "SAVE10", snap.Code)
	assert.Equal(t, int64(20000), snap.Amount)
	assert.True(t, snap.Value.Equal(decimal.NewFromInt(10)))
}

func TestResolve_InvalidCodes(t *testing.T) {
	expired := activeDiscount(model.KindFixed, 5000)
	expired.Code = "OLD"
	expired.EndsAt = fixedNow.Add(-time.Hour)
	svc, _ := newTestService(expired)

	for _, code := range []string{"", "MISSING", "OLD"} {
		_, err := svc.Resolve(context.Background(), code, 100000)
		require.Error(t, err, code)
		assert.True(t, IsDiscountInvalid(err), code)

		var appErr *model.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, model.ErrCodeDiscountInvalid, appErr.Code)
	}
}

func TestPreview_ReturnsBreakdown(t *testing.T) {
	d := activeDiscount(model.KindFixed, 30000)
	d.Code = "FLAT30"
	svc, _ := newTestService(d)

	resp, err := svc.Preview(context.Background(), model.ValidateDiscountRequest{Code: "flat30", Amount: 20000})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), resp.Discount)
	assert.Equal(t, int64(0), resp.NetAmount)
	assert.True(t, resp.Breakdown.Capped)
}

func TestIncrementUsage_ConcurrentNeverExceedsLimit(t *testing.T) {
	// Postgres enforces this with "used_count < usage_limit" in the UPDATE; keep memoryRepo in sync.
	const limit = 10
	for _, extra := range []int{1, 5, 40} {
		d := activeDiscount(model.KindFixed, 1000)
		d.UsageLimit = intPtr(limit)
		svc, repo := newTestService(d)

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < limit+extra; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := svc.IncrementUsage(context.Background(), d.ID)
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		stored, err := repo.FindByID(context.Background(), d.ID)
		require.NoError(t, err)
		assert.Equal(t, limit, stored.UsedCount)
		assert.Equal(t, limit, succeeded)
	}
}

func TestCreate_ValidatesAndNormalizes(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), model.CreateDiscountRequest{
		Code: "X", Name: "bad", Kind: model.KindPercentage, Value: decimal.NewFromInt(150),
		StartsAt: fixedNow, EndsAt: fixedNow.Add(time.Hour),
	})
	assert.Error(t, err)

	d, err := svc.Create(context.Background(), model.CreateDiscountRequest{
		Code: " launch25 ", Name: "Launch", Kind: model.KindPercentage, Value: decimal.NewFromInt(25),
		MaximumDiscount: int64Ptr(50000), StartsAt: fixedNow, EndsAt: fixedNow.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "LAUNCH25", d.Code)
	assert.True(t, d.IsActive)

	_, err = svc.Create(context.Background(), model.CreateDiscountRequest{
		Code: "LAUNCH25", Name: "Again", Kind: model.KindFixed, Value: decimal.NewFromInt(1000),
		StartsAt: fixedNow, EndsAt: fixedNow.Add(time.Hour),
	})
	assert.ErrorIs(t, err, model.ErrCodeExists)
}

func TestCreate_RejectsCapOnFixed(t *testing.T) {
	req := model.CreateDiscountRequest{
		Code: "FIXED", Name: "Fixed", Kind: model.KindFixed, Value: decimal.NewFromInt(1000),
		MaximumDiscount: int64Ptr(500), StartsAt: fixedNow, EndsAt: fixedNow.Add(time.Hour),
	}
	assert.Error(t, req.Validate())
}

func TestDeactivate(t *testing.T) {
	d := activeDiscount(model.KindFixed, 1000)
	svc, repo := newTestService(d)

	require.NoError(t, svc.Deactivate(context.Background(), d.ID))
	stored, _ := repo.FindByID(context.Background(), d.ID)
	assert.False(t, stored.IsActive)

	assert.ErrorIs(t, svc.Deactivate(context.Background(), uuid.New()), model.ErrDiscountNotFound)
}
