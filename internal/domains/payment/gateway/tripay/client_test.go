package tripay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-payments/internal/domains/payment/gateway"
	"course-payments/internal/domains/payment/model"
)

func testConfig(baseURL string) *Config {
	return &Config{
		APIKey:       "api-key",
		PrivateKey:   "private-key",
		MerchantCode: "T0001",
		BaseURL:      baseURL,
		ExpiryWindow: time.Hour,
	}
}

func TestTransactionSignature(t *testing.T) {
	a := TransactionSignature("T0001", "TP-1", 255000, "private-key")
	b := GenerateSignature([]byte("T0001TP-1255000"), "private-key")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestVerifyCallbackSignature(t *testing.T) {
	body := []byte(`{"merchant_ref":"TP-1","status":"PAID"}`)
	sig := GenerateSignature(body, "private-key")

	assert.True(t, VerifyCallbackSignature(body, sig, "private-key"))
	assert.True(t, VerifyCallbackSignature(body, "  "+sig, "private-key"))
	assert.False(t, VerifyCallbackSignature(body, sig, "other-key"))
	assert.False(t, VerifyCallbackSignature([]byte(`{"merchant_ref":"TP-2","status":"PAID"}`), sig, "private-key"))
	assert.False(t, VerifyCallbackSignature(body, "", "private-key"))
}

func TestCreateTransaction(t *testing.T) {
	var got createRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/create", r.URL.Path)
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"success":true,"message":"","data":{"reference":"T0001ABC","merchant_ref":"TP-1","checkout_url":"https://tripay.co.id/checkout/T0001ABC","status":"UNPAID","amount":255000,"expired_time":1700000000}}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	trx, err := c.CreateTransaction(context.Background(), gateway.TripayRequest{
		Method:      "BRIVA",
		MerchantRef: "TP-1",
		Amount:      255000,
		Items:       []gateway.Item{{ID: "c1", Name: "Go Fundamentals", Price: 255000, Quantity: 1}},
		Customer:    gateway.Customer{Name: "Ana", Email: "ana@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "T0001ABC", trx.Reference)
	assert.Equal(t, "https://tripay.co.id/checkout/T0001ABC", trx.CheckoutURL)

	assert.Equal(t, "BRIVA", got.Method)
	assert.Equal(t, TransactionSignature("T0001", "TP-1", 255000, "private-key"), got.Signature)
	assert.Greater(t, got.ExpiredTime, time.Now().Unix())
	require.Len(t, got.OrderItems, 1)
}

func TestCreateTransaction_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid signature"}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.CreateTransaction(context.Background(), gateway.TripayRequest{Method: "QRIS", MerchantRef: "TP-1", Amount: 1000})
	assert.ErrorIs(t, err, model.ErrGatewayUnavailable)
}
