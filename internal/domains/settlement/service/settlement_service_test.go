package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutModel "course-payments/internal/domains/checkout/model"
	courseModel "course-payments/internal/domains/course/model"
	"course-payments/internal/domains/settlement/model"
)

// memoryRepo enforces the same unique keys as the transactions table.
type memoryRepo struct {
	mu       sync.Mutex
	byID     map[string]*model.Transaction
	bySource map[string]string
	inserts  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: map[string]*model.Transaction{}, bySource: map[string]string{}}
}

func (r *memoryRepo) Insert(_ context.Context, trx *model.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[trx.BookingTrxID]; ok {
		return false, nil
	}
	if trx.SourceRef != nil {
		if _, ok := r.bySource[*trx.SourceRef]; ok {
			return false, nil
		}
		r.bySource[*trx.SourceRef] = trx.BookingTrxID
	}
	cp := *trx
	cp.CreatedAt = time.Now()
	r.byID[trx.BookingTrxID] = &cp
	r.inserts++
	return true, nil
}

func (r *memoryRepo) FindByBookingID(_ context.Context, id string) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, model.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memoryRepo) FindBySourceRef(ctx context.Context, ref string) (*model.Transaction, error) {
	r.mu.Lock()
	id, ok := r.bySource[ref]
	r.mu.Unlock()
	if !ok {
		return nil, model.ErrTransactionNotFound
	}
	return r.FindByBookingID(ctx, id)
}

func (r *memoryRepo) MarkPaid(_ context.Context, id, paymentType string, startedAt time.Time, endedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.IsPaid || t.DeletedAt != nil {
		return false, nil
	}
	t.IsPaid = true
	t.PaymentType = paymentType
	t.StartedAt = startedAt
	t.EndedAt = endedAt
	return true, nil
}

func (r *memoryRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.DeletedAt != nil {
		return model.ErrTransactionNotFound
	}
	now := time.Now()
	t.DeletedAt = &now
	return nil
}

type passThroughTx struct{}

func (passThroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type scriptedIDs struct {
	mu    sync.Mutex
	ids   []string
	calls int
}

func (s *scriptedIDs) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.ids[s.calls%len(s.ids)]
	s.calls++
	return id
}

type countingUsage struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int
	limit  int
}

func (u *countingUsage) IncrementUsage(_ context.Context, id uuid.UUID) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.counts == nil {
		u.counts = map[uuid.UUID]int{}
	}
	if u.limit > 0 && u.counts[id] >= u.limit {
		return false, nil
	}
	u.counts[id]++
	return true, nil
}

type recordingReconciler struct{ calls int32 }

func (r *recordingReconciler) AttachBookingID(context.Context, uuid.UUID, uuid.UUID, int64, string) (bool, error) {
	atomic.AddInt32(&r.calls, 1)
	return true, nil
}

type recordingNotifier struct{ calls int32 }

func (n *recordingNotifier) SettlementPaid(context.Context, *model.Transaction) error {
	atomic.AddInt32(&n.calls, 1)
	return nil
}

type courseStub struct{ course *courseModel.Course }

func (c courseStub) FindByID(context.Context, uuid.UUID) (*courseModel.Course, error) {
	return c.course, nil
}

type quoterStub struct{ course *courseModel.Course }

func (q quoterStub) Quote(_ context.Context, _ uuid.UUID, _ string) (*checkoutModel.Quote, error) {
	return checkoutModel.NewQuote(q.course, 5000, nil), nil
}

type fixture struct {
	svc        *settlementService
	repo       *memoryRepo
	usage      *countingUsage
	reconciler *recordingReconciler
	notifier   *recordingNotifier
	course     *courseModel.Course
}

func newFixture(t *testing.T, ids BookingIDGenerator, maxAttempts int) *fixture {
	t.Helper()
	course := &courseModel.Course{ID: uuid.New(), Title: "Go", Price: 250000, AccessDays: 30, IsActive: true}
	f := &fixture{
		repo:       newMemoryRepo(),
		usage:      &countingUsage{},
		reconciler: &recordingReconciler{},
		notifier:   &recordingNotifier{},
		course:     course,
	}
	f.svc = NewSettlementService(
		f.repo, passThroughTx{}, ids, courseStub{course},
		f.usage, f.reconciler, f.notifier, quoterStub{course},
		Config{MaxAttempts: maxAttempts},
	).(*settlementService)
	return f
}

func paidRequest(course *courseModel.Course, sourceRef string, discountID *uuid.UUID) model.SettleRequest {
	return model.SettleRequest{
		SourceRef:      sourceRef,
		UserID:         uuid.New(),
		CourseID:       course.ID,
		Subtotal:       250000,
		AdminFee:       5000,
		DiscountAmount: 20000,
		DiscountID:     discountID,
		GrandTotal:     235000,
		IsPaid:         true,
		PaymentType:    "bank_transfer",
		PaidAt:         time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC),
	}
}

func TestSettle_DistinctIdentifiers(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)

	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		trx, err := f.svc.Settle(context.Background(), paidRequest(f.course, "", nil))
		require.NoError(t, err)
		assert.False(t, seen[trx.BookingTrxID], "duplicate booking id %s", trx.BookingTrxID)
		seen[trx.BookingTrxID] = true
	}
	assert.Equal(t, 300, f.repo.inserts)
}

func TestSettle_CollisionRegenerates(t *testing.T) {
	ids := &scriptedIDs{ids: []string{"CRS000001", "CRS000001", "CRS000002"}}
	f := newFixture(t, ids, 0)

	first, err := f.svc.Settle(context.Background(), paidRequest(f.course, "", nil))
	require.NoError(t, err)
	second, err := f.svc.Settle(context.Background(), paidRequest(f.course, "", nil))
	require.NoError(t, err)

	assert.Equal(t, "CRS000001", first.BookingTrxID)
	assert.Equal(t, "CRS000002", second.BookingTrxID)
	assert.Equal(t, 3, ids.calls)
}

func TestSettle_IdentifierSpaceExhausted(t *testing.T) {
	f := newFixture(t, &scriptedIDs{ids: []string{"CRS000001"}}, 5)

	_, err := f.svc.Settle(context.Background(), paidRequest(f.course, "", nil))
	require.NoError(t, err)

	_, err = f.svc.Settle(context.Background(), paidRequest(f.course, "", nil))
	assert.ErrorIs(t, err, model.ErrIdentifierSpaceExhausted)
}

func TestSettle_CanceledContextStopsRetrying(t *testing.T) {
	f := newFixture(t, &scriptedIDs{ids: []string{"CRS000001"}}, 0)
	_, err := f.svc.Settle(context.Background(), paidRequest(f.course, "", nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.Settle(ctx, paidRequest(f.course, "", nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSettle_ReplayBySourceRefIsIdempotent(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)
	discountID := uuid.New()
	req := paidRequest(f.course, "CO-ABC", &discountID)

	first, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.BookingTrxID, second.BookingTrxID)
	assert.Equal(t, 1, f.repo.inserts)
	assert.Equal(t, 1, f.usage.counts[discountID])
	assert.Equal(t, int32(1), f.notifier.calls)
	assert.Equal(t, int32(0), f.reconciler.calls, "gateway settlements are linked directly")
}

func TestSettle_ConcurrentReplaysProduceOneRow(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)
	discountID := uuid.New()
	req := paidRequest(f.course, "TP-RACE", &discountID)

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			trx, err := f.svc.Settle(context.Background(), req)
			if assert.NoError(t, err) {
				results[i] = trx.BookingTrxID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range results {
		assert.Equal(t, results[0], id)
	}
	assert.Equal(t, 1, f.repo.inserts)
	assert.Equal(t, 1, f.usage.counts[discountID])
}

func TestSettle_AccessWindow(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)

	trx, err := f.svc.Settle(context.Background(), paidRequest(f.course, "", nil))
	require.NoError(t, err)
	require.NotNil(t, trx.EndedAt)
	assert.Equal(t, time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC), *trx.EndedAt)
}

func TestSettle_DiscountLimitReachedStillSettles(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)
	f.usage.limit = 1
	discountID := uuid.New()

	_, err := f.svc.Settle(context.Background(), paidRequest(f.course, "CO-1", &discountID))
	require.NoError(t, err)
	trx, err := f.svc.Settle(context.Background(), paidRequest(f.course, "CO-2", &discountID))
	require.NoError(t, err)

	assert.True(t, trx.IsPaid)
	assert.Equal(t, 1, f.usage.counts[discountID])
	assert.Equal(t, 2, f.repo.inserts)
}

func TestSettle_RejectsBrokenTotals(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)
	req := paidRequest(f.course, "", nil)
	req.GrandTotal = 1

	_, err := f.svc.Settle(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrGrandTotalMismatch)
	assert.Zero(t, f.repo.inserts)
}

func TestSettle_ExplicitBookingIDReturnsExisting(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)
	req := paidRequest(f.course, "", nil)
	req.BookingID = "CRS424242"

	first, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "CRS424242", first.BookingTrxID)

	req.PaymentType = "changed"
	again, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "bank_transfer", again.PaymentType)
	assert.Equal(t, 1, f.repo.inserts)
}

func TestManualPayment_ReconcilesOnce(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)

	trx, err := f.svc.RecordManualPayment(context.Background(), model.ManualPaymentRequest{UserID: uuid.New(), CourseID: f.course.ID})
	require.NoError(t, err)

	assert.True(t, trx.IsPaid)
	assert.Equal(t, model.PaymentTypeManual, trx.PaymentType)
	assert.Equal(t, int64(255000), trx.GrandTotal)
	assert.Equal(t, int32(1), f.reconciler.calls)
	assert.Equal(t, int32(1), f.notifier.calls)
}

func TestMarkPaid_OneWayAndSideEffectsOnce(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)
	unpaid := false
	created, err := f.svc.RecordManualPayment(context.Background(), model.ManualPaymentRequest{UserID: uuid.New(), CourseID: f.course.ID, IsPaid: &unpaid})
	require.NoError(t, err)
	assert.False(t, created.IsPaid)
	assert.Equal(t, int32(0), f.notifier.calls)

	paid, err := f.svc.MarkPaid(context.Background(), created.BookingTrxID, "cash")
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "cash", paid.PaymentType)

	again, err := f.svc.MarkPaid(context.Background(), created.BookingTrxID, "other")
	require.NoError(t, err)
	assert.Equal(t, "cash", again.PaymentType)

	assert.Equal(t, int32(1), f.notifier.calls)
	assert.Equal(t, int32(1), f.reconciler.calls)

	_, err = f.svc.SetPaid(context.Background(), created.BookingTrxID, model.UpdatePaidRequest{IsPaid: false})
	assert.ErrorIs(t, err, model.ErrPaidIsFinal)
}

func TestSoftDeleteHidesFromGet(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)
	trx, err := f.svc.Settle(context.Background(), paidRequest(f.course, "CO-DEL", nil))
	require.NoError(t, err)

	require.NoError(t, f.svc.SoftDelete(context.Background(), trx.BookingTrxID))
	_, err = f.svc.Get(context.Background(), trx.BookingTrxID)
	assert.ErrorIs(t, err, model.ErrTransactionNotFound)

	// the source ref stays owned; a late replay must not create a new row
	replay, err := f.svc.Settle(context.Background(), paidRequest(f.course, "CO-DEL", nil))
	require.NoError(t, err)
	assert.Equal(t, trx.BookingTrxID, replay.BookingTrxID)
	assert.Equal(t, 1, f.repo.inserts)
}

func TestReconcile_RequiresPaid(t *testing.T) {
	f := newFixture(t, NewBookingIDGenerator("CRS", 6), 0)
	unpaid := false
	trx, err := f.svc.RecordManualPayment(context.Background(), model.ManualPaymentRequest{UserID: uuid.New(), CourseID: f.course.ID, IsPaid: &unpaid})
	require.NoError(t, err)

	_, err = f.svc.Reconcile(context.Background(), trx.BookingTrxID)
	assert.ErrorIs(t, err, model.ErrNotPaid)
}
