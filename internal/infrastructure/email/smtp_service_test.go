package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "0", formatRupiah(0))
	assert.Equal(t, "999", formatRupiah(999))
	assert.Equal(t, "1.000", formatRupiah(1000))
	assert.Equal(t, "1.250.000", formatRupiah(1250000))
	assert.Equal(t, "-5.000", formatRupiah(-5000))
}

func TestBuildReceiptMessage(t *testing.T) {
	msg := string(BuildReceiptMessage("billing@courses.id", ReceiptData{
		Email:        "ana@example.com",
		Name:         "Ana",
		BookingTrxID: "CRS000123",
		CourseTitle:  "Go Fundamentals",
		GrandTotal:   235000,
		PaymentType:  "qris",
	}))

	assert.Contains(t, msg, "To: ana@example.com\r\n")
	assert.Contains(t, msg, "Subject: Payment received - CRS000123")
	assert.Contains(t, msg, "Rp 235.000")
	assert.Contains(t, msg, "lifetime")
}

func TestSendSettlementReceipt(t *testing.T) {
	var gotTo []string
	svc := &smtpEmailService{
		smtpAddr: "localhost:1025",
		smtpFrom: "billing@courses.id",
		send: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotTo = to
			return nil
		},
	}

	require.NoError(t, svc.SendSettlementReceipt(context.Background(), ReceiptData{Email: "ana@example.com", BookingTrxID: "CRS1"}))
	assert.Equal(t, []string{"ana@example.com"}, gotTo)

	svc.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	assert.Error(t, svc.SendSettlementReceipt(context.Background(), ReceiptData{Email: "ana@example.com"}))
}
