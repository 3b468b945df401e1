package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	courseModel "course-payments/internal/domains/course/model"
	discountModel "course-payments/internal/domains/discount/model"
)

func TestNewQuote_GrandTotal(t *testing.T) {
	course := &courseModel.Course{ID: uuid.New(), Price: 250000}
	applied := &discountModel.Application{Discount: &discountModel.Discount{ID: uuid.New()}, Amount: 20000}

	q := NewQuote(course, 5000, applied)
	assert.Equal(t, int64(235000), q.GrandTotal)
	assert.Equal(t, q.Subtotal+q.AdminFee-q.DiscountAmount, q.GrandTotal)
	assert.Equal(t, applied.Discount.ID, *q.DiscountID())

	plain := NewQuote(course, 5000, nil)
	assert.Equal(t, int64(255000), plain.GrandTotal)
	assert.Nil(t, plain.DiscountID())
}

func TestPendingCheckoutIsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p := &PendingCheckout{ExpiresAt: now.Add(2 * time.Hour)}
	assert.False(t, p.IsExpired(now))
	assert.False(t, p.IsExpired(p.ExpiresAt.Add(-time.Nanosecond)))
	assert.True(t, p.IsExpired(p.ExpiresAt))
	assert.True(t, p.IsExpired(now.Add(3*time.Hour)))
}
