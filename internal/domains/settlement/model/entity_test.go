package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSettleRequestValidate(t *testing.T) {
	base := SettleRequest{UserID: uuid.New(), CourseID: uuid.New(), Subtotal: 250000, AdminFee: 5000, DiscountAmount: 20000, GrandTotal: 235000}
	assert.NoError(t, base.Validate())

	bad := base
	bad.GrandTotal = 255000
	assert.ErrorIs(t, bad.Validate(), ErrGrandTotalMismatch)

	bad = base
	bad.DiscountAmount = 300000
	bad.GrandTotal = bad.Subtotal + bad.AdminFee - bad.DiscountAmount
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSettlement)

	bad = base
	bad.UserID = uuid.Nil
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSettlement)
}
