package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-payments/internal/domains/checkout/model"
	courseModel "course-payments/internal/domains/course/model"
	discountModel "course-payments/internal/domains/discount/model"
	gatewayMock "course-payments/internal/domains/payment/gateway/mock"
	settingsModel "course-payments/internal/domains/settings/model"
)

type memoryRepo struct {
	mu   sync.Mutex
	rows map[string]*model.PendingCheckout
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[string]*model.PendingCheckout{}}
}

func (r *memoryRepo) Create(_ context.Context, p *model.PendingCheckout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.rows[p.OrderID] = &cp
	return nil
}

func (r *memoryRepo) FindByOrderID(_ context.Context, orderID string) (*model.PendingCheckout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[orderID]
	if !ok {
		return nil, model.ErrCheckoutNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) DeleteByOrderID(_ context.Context, orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[orderID]
	delete(r.rows, orderID)
	return ok, nil
}

func (r *memoryRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, p := range r.rows {
		if p.ExpiresAt.Before(now) {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

type courseStub map[uuid.UUID]*courseModel.Course

func (c courseStub) FindByID(_ context.Context, id uuid.UUID) (*courseModel.Course, error) {
	if course, ok := c[id]; ok {
		return course, nil
	}
	return nil, courseModel.ErrCourseNotFound
}

type settingsStub struct{ s settingsModel.SiteSettings }

func (s settingsStub) Get(context.Context) (*settingsModel.SiteSettings, error) {
	cp := s.s
	return &cp, nil
}

// resolverStub knows exactly one code, SAVE10 (10%, max 20000).
type resolverStub struct{}

func (resolverStub) Resolve(_ context.Context, code string, amount int64) (*discountModel.Application, error) {
	if code != "SAVE10" {
		return nil, discountModel.NewDiscountInvalid("not_found")
	}
	d := &discountModel.Discount{ID: uuid.MustParse("8b6f3c44-6a57-4c3f-9d2e-1f7b3f0c2a11"), Code: "SAVE10", Name: "Save 10", Kind: discountModel.KindPercentage, Value: decimal.NewFromInt(10)}
	amt := amount / 10
	if amt > 20000 {
		amt = 20000
	}
	return &discountModel.Application{Discount: d, Amount: amt}, nil
}

type fixture struct {
	svc    *checkoutService
	repo   *memoryRepo
	snap   *gatewayMock.SnapGateway
	course *courseModel.Course
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	course := &courseModel.Course{ID: uuid.New(), Title: "Go Fundamentals", Price: 250000, IsActive: true}
	repo := newMemoryRepo()
	snap := gatewayMock.NewSnapGateway()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	svc := NewCheckoutService(
		repo,
		courseStub{course.ID: course},
		resolverStub{},
		settingsStub{settingsModel.SiteSettings{AdminFee: 5000}},
		nil,
		snap,
	).(*checkoutService)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, repo: repo, snap: snap, course: course, now: now}
}

func TestOpen_WithDiscount(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Open(context.Background(), uuid.New(), model.OpenCheckoutRequest{CourseID: f.course.ID, DiscountCode: "SAVE10"})
	require.NoError(t, err)

	assert.Equal(t, int64(250000), resp.Subtotal)
	assert.Equal(t, int64(20000), resp.DiscountAmount)
	assert.Equal(t, int64(235000), resp.GrandTotal)
	assert.Equal(t, f.now.Add(2*time.Hour), resp.ExpiresAt)
	assert.NotEmpty(t, resp.SnapToken)
	assert.LessOrEqual(t, len(resp.OrderID), 50)

	stored, err := f.repo.FindByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.NotNil(t, stored.DiscountSnapshot)
	assert.Equal(t, "SAVE10", stored.DiscountSnapshot.Code)
	assert.Equal(t, int64(20000), stored.DiscountSnapshot.Amount)
	assert.Equal(t, stored.Subtotal+stored.AdminFee-stored.DiscountAmount, stored.GrandTotal)
}

func TestOpen_InvalidDiscountPersistsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Open(context.Background(), uuid.New(), model.OpenCheckoutRequest{CourseID: f.course.ID, DiscountCode: "NOPE"})
	require.Error(t, err)
	assert.ErrorIs(t, err, discountModel.ErrDiscountInvalid)
	assert.Empty(t, f.repo.rows)
	assert.Empty(t, f.snap.CreatedOrders)
}

func TestOpen_GatewayFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.snap.SetFail(true)

	_, err := f.svc.Open(context.Background(), uuid.New(), model.OpenCheckoutRequest{CourseID: f.course.ID})
	require.Error(t, err)
	assert.Empty(t, f.repo.rows)
}

func TestOpen_ExpiryIgnoresSiteSettings(t *testing.T) {
	f := newFixture(t)
	f.svc.settings = settingsStub{settingsModel.SiteSettings{AdminFee: 0, SupportEmail: "help@courses.local"}}

	resp, err := f.svc.Open(context.Background(), uuid.New(), model.OpenCheckoutRequest{CourseID: f.course.ID})
	require.NoError(t, err)

	assert.Equal(t, f.now.Add(2*time.Hour), resp.ExpiresAt)
	assert.Equal(t, model.CheckoutTTL, f.snap.LastRequest.Expiry)

	stored, err := f.repo.FindByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(2*time.Hour), stored.ExpiresAt)
}

func TestCleanupExpired_KeepsRowAtExactExpiry(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Open(context.Background(), uuid.New(), model.OpenCheckoutRequest{CourseID: f.course.ID})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return resp.ExpiresAt }
	deleted, err := f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)

	p, err := f.svc.FindByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.True(t, p.IsExpired(f.svc.now()))
}

func TestOpen_InactiveCourse(t *testing.T) {
	f := newFixture(t)
	f.course.IsActive = false

	_, err := f.svc.Open(context.Background(), uuid.New(), model.OpenCheckoutRequest{CourseID: f.course.ID})
	assert.ErrorIs(t, err, model.ErrCourseUnavailable)
}

func TestCleanupExpired_AfterThreeHours(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Open(context.Background(), uuid.New(), model.OpenCheckoutRequest{CourseID: f.course.ID})
	require.NoError(t, err)

	deleted, err := f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)

	f.svc.now = func() time.Time { return f.now.Add(3 * time.Hour) }
	deleted, err = f.svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = f.svc.FindByOrderID(context.Background(), resp.OrderID)
	assert.ErrorIs(t, err, model.ErrCheckoutNotFound)
}

func TestFindByOrderID_DoesNotFilterExpired(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Open(context.Background(), uuid.New(), model.OpenCheckoutRequest{CourseID: f.course.ID})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return f.now.Add(5 * time.Hour) }
	p, err := f.svc.FindByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.True(t, p.IsExpired(f.svc.now()))
}

func TestGetForUser_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	resp, err := f.svc.Open(context.Background(), owner, model.OpenCheckoutRequest{CourseID: f.course.ID})
	require.NoError(t, err)

	_, err = f.svc.GetForUser(context.Background(), owner, resp.OrderID)
	assert.NoError(t, err)

	_, err = f.svc.GetForUser(context.Background(), uuid.New(), resp.OrderID)
	assert.ErrorIs(t, err, model.ErrNotOwner)
}

func TestQuoteItemsSumToGrandTotal(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Quote(context.Background(), f.course.ID, "SAVE10")
	require.NoError(t, err)

	var sum int64
	for _, it := range quoteItems(q) {
		sum += it.Price * int64(it.Quantity)
	}
	assert.Equal(t, q.GrandTotal, sum)
}
