package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	checkoutModel "course-payments/internal/domains/checkout/model"
	"course-payments/internal/domains/payment/model"
	settlementModel "course-payments/internal/domains/settlement/model"
)

// memoryRefs mirrors the conditional updates of the payment_references table.
type memoryRefs struct {
	mu    sync.Mutex
	rows  map[string]*model.PaymentReference
	clock time.Time
}

func newMemoryRefs() *memoryRefs {
	return &memoryRefs{rows: map[string]*model.PaymentReference{}, clock: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memoryRefs) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memoryRefs) CreatePending(_ context.Context, ref *model.PaymentReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref.Status = model.StatusUnpaid
	ref.CreatedAt = r.tick()
	ref.UpdatedAt = ref.CreatedAt
	cp := *ref
	r.rows[ref.MerchantRef] = &cp
	return nil
}

func (r *memoryRefs) FindByMerchantRef(_ context.Context, merchantRef string) (*model.PaymentReference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.rows[merchantRef]
	if !ok {
		return nil, model.ErrUnknownReference
	}
	cp := *ref
	return &cp, nil
}

func (r *memoryRefs) ApplyCallback(_ context.Context, merchantRef string, upd model.CallbackUpdate) (bool, *model.PaymentReference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.rows[merchantRef]
	if !ok {
		return false, nil, model.ErrUnknownReference
	}
	if ref.Status == model.StatusPaid && upd.Status != model.StatusPaid {
		cp := *ref
		return false, &cp, nil
	}
	ref.Status = upd.Status
	if upd.GatewayReference != "" {
		gr := upd.GatewayReference
		ref.GatewayReference = &gr
	}
	if upd.PaidAmount != nil {
		paid := *upd.PaidAmount
		ref.PaidAmount = &paid
	}
	if upd.PaymentMethod != "" {
		pm := upd.PaymentMethod
		ref.PaymentMethod = &pm
	}
	now := r.tick()
	ref.CallbackAt = &now
	ref.UpdatedAt = now
	cp := *ref
	return true, &cp, nil
}

func (r *memoryRefs) LinkBookingID(_ context.Context, merchantRef, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.rows[merchantRef]
	if !ok || ref.BookingTrxID != nil {
		return false, nil
	}
	id := bookingID
	ref.BookingTrxID = &id
	ref.UpdatedAt = r.tick()
	return true, nil
}

func (r *memoryRefs) AttachBookingToLatestMatch(_ context.Context, userID, courseID uuid.UUID, amount int64, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []*model.PaymentReference
	for _, ref := range r.rows {
		if ref.UserID == userID && ref.CourseID == courseID && ref.Status == model.StatusPaid &&
			ref.PaidAmount != nil && *ref.PaidAmount == amount && ref.BookingTrxID == nil {
			candidates = append(candidates, ref)
		}
	}
	if len(candidates) == 0 {
		return false, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt) })
	id := bookingID
	candidates[0].BookingTrxID = &id
	return true, nil
}

// set lets a test place a row in an arbitrary state.
func (r *memoryRefs) set(ref *model.PaymentReference) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ref
	r.rows[ref.MerchantRef] = &cp
}

type memoryWebhooks struct {
	mu   sync.Mutex
	logs map[uuid.UUID]*model.WebhookLog
}

func newMemoryWebhooks() *memoryWebhooks {
	return &memoryWebhooks{logs: map[uuid.UUID]*model.WebhookLog{}}
}

func (w *memoryWebhooks) Create(_ context.Context, log *model.WebhookLog) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := *log
	w.logs[log.ID] = &cp
	return nil
}

func (w *memoryWebhooks) update(id uuid.UUID, fn func(*model.WebhookLog)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if log, ok := w.logs[id]; ok {
		fn(log)
	}
	return nil
}

func (w *memoryWebhooks) MarkProcessed(_ context.Context, id uuid.UUID) error {
	return w.update(id, func(l *model.WebhookLog) {
		l.Status = model.WebhookStatusProcessed
		l.SignatureValid = true
	})
}

func (w *memoryWebhooks) MarkInvalid(_ context.Context, id uuid.UUID, reason string) error {
	return w.update(id, func(l *model.WebhookLog) {
		l.Status = model.WebhookStatusInvalid
		l.ErrorMessage = &reason
	})
}

func (w *memoryWebhooks) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	return w.update(id, func(l *model.WebhookLog) {
		l.Status = model.WebhookStatusFailed
		l.SignatureValid = true
		l.ErrorMessage = &reason
	})
}

func (w *memoryWebhooks) ListRetryable(_ context.Context, maxRetries, limit int) ([]*model.WebhookLog, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*model.WebhookLog
	for _, l := range w.logs {
		if l.CanRetry(maxRetries) && len(out) < limit {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (w *memoryWebhooks) IncrementRetry(_ context.Context, id uuid.UUID) error {
	return w.update(id, func(l *model.WebhookLog) { l.RetryCount++ })
}

func (w *memoryWebhooks) reasons() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, l := range w.logs {
		if l.ErrorMessage != nil {
			out = append(out, *l.ErrorMessage)
		}
	}
	return out
}

func (w *memoryWebhooks) statuses() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, l := range w.logs {
		out = append(out, l.Status)
	}
	return out
}

type memoryCheckouts struct {
	mu      sync.Mutex
	pending map[string]*checkoutModel.PendingCheckout
	quote   *checkoutModel.Quote
}

func (c *memoryCheckouts) Quote(context.Context, uuid.UUID, string) (*checkoutModel.Quote, error) {
	return c.quote, nil
}

func (c *memoryCheckouts) FindByOrderID(_ context.Context, orderID string) (*checkoutModel.PendingCheckout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[orderID]
	if !ok {
		return nil, checkoutModel.ErrCheckoutNotFound
	}
	cp := *p
	return &cp, nil
}

func (c *memoryCheckouts) Remove(_ context.Context, orderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, orderID)
	return nil
}

// memoryLedger settles once per source ref and counts the discount use the
// way the settlement ledger does: only on the insert that created the row.
type memoryLedger struct {
	mu        sync.Mutex
	bySource  map[string]*settlementModel.Transaction
	seq       int
	usage     map[uuid.UUID]int
	failTimes int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{bySource: map[string]*settlementModel.Transaction{}, usage: map[uuid.UUID]int{}}
}

func (l *memoryLedger) Settle(_ context.Context, req settlementModel.SettleRequest) (*settlementModel.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failTimes > 0 {
		l.failTimes--
		return nil, errTransient
	}
	if trx, ok := l.bySource[req.SourceRef]; ok {
		return trx, nil
	}
	l.seq++
	ref := req.SourceRef
	trx := &settlementModel.Transaction{
		ID:           uuid.New(),
		BookingTrxID: fmt.Sprintf("CRS%06d", l.seq),
		SourceRef:    &ref,
		UserID:       req.UserID,
		CourseID:     req.CourseID,
		GrandTotal:   req.GrandTotal,
		IsPaid:       req.IsPaid,
		PaymentType:  req.PaymentType,
		StartedAt:    req.PaidAt,
	}
	l.bySource[req.SourceRef] = trx
	if req.DiscountID != nil {
		l.usage[*req.DiscountID]++
	}
	return trx, nil
}

func (l *memoryLedger) FindBySourceRef(_ context.Context, ref string) (*settlementModel.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	trx, ok := l.bySource[ref]
	if !ok {
		return nil, settlementModel.ErrTransactionNotFound
	}
	return trx, nil
}

func (l *memoryLedger) rows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.bySource)
}
