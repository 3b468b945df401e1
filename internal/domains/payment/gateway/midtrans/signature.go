package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// NotificationSignature computes SHA512(order_id + status_code + gross_amount + server_key).
func NotificationSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifyNotificationSignature(orderID, statusCode, grossAmount, serverKey, received string) bool {
	expected := NotificationSignature(orderID, statusCode, grossAmount, serverKey)
	got := strings.ToLower(strings.TrimSpace(received))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
