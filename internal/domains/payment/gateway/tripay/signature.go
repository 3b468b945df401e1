package tripay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// GenerateSignature is HMAC-SHA256(payload, privateKey), hex encoded.
func GenerateSignature(payload []byte, privateKey string) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// TransactionSignature signs merchant_code + merchant_ref + amount for closed payments.
func TransactionSignature(merchantCode, merchantRef string, amount int64, privateKey string) string {
	return GenerateSignature([]byte(merchantCode+merchantRef+strconv.FormatInt(amount, 10)), privateKey)
}

// VerifyCallbackSignature checks the X-Callback-Signature header against the raw body.
func VerifyCallbackSignature(rawBody []byte, received, privateKey string) bool {
	expected := GenerateSignature(rawBody, privateKey)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(received))))
}
