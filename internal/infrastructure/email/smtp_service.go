package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"course-payments/pkg/logger"
)

type ReceiptData struct {
	Email        string
	Name         string
	BookingTrxID string
	CourseTitle  string
	GrandTotal   int64
	PaymentType  string
	AccessUntil  string // empty for lifetime access
}

type EmailService interface {
	SendSettlementReceipt(ctx context.Context, data ReceiptData) error
}

type smtpEmailService struct {
	smtpAddr string
	smtpFrom string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPEmailService sends unauthenticated mail, e.g. to a local relay or MailHog.
func NewSMTPEmailService(smtpHost, smtpPort, from string) EmailService {
	if from == "" {
		from = "noreply@courses.local"
	}
	return &smtpEmailService{
		smtpAddr: smtpHost + ":" + smtpPort,
		smtpFrom: from,
		send:     smtp.SendMail,
	}
}

func (s *smtpEmailService) SendSettlementReceipt(ctx context.Context, data ReceiptData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := BuildReceiptMessage(s.smtpFrom, data)
	if err := s.send(s.smtpAddr, nil, s.smtpFrom, []string{data.Email}, msg); err != nil {
		logger.Warn("Failed to send receipt", map[string]interface{}{
			"error":          err.Error(),
			"to":             data.Email,
			"booking_trx_id": data.BookingTrxID,
			"smtp_addr":      s.smtpAddr,
		})
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func BuildReceiptMessage(from string, data ReceiptData) []byte {
	subject := fmt.Sprintf("Payment received - %s", data.BookingTrxID)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", data.Name)
	fmt.Fprintf(&b, "We received your payment for %q.\n\n", data.CourseTitle)
	fmt.Fprintf(&b, "Booking ID : %s\n", data.BookingTrxID)
	fmt.Fprintf(&b, "Total      : Rp %s\n", formatRupiah(data.GrandTotal))
	fmt.Fprintf(&b, "Method     : %s\n", data.PaymentType)
	if data.AccessUntil != "" {
		fmt.Fprintf(&b, "Access until: %s\n", data.AccessUntil)
	} else {
		b.WriteString("Access     : lifetime\n")
	}
	b.WriteString("\nHappy learning!\n")

	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, data.Email, subject, b.String()))
}

// formatRupiah groups thousands with dots: 1250000 -> 1.250.000.
func formatRupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := fmt.Sprintf("%d", amount)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
